/*
 *  run.go
 *  cellsnp
 *
 *  Created by Xianjie Huang on 05/10/20
 *  Copyright © 2020 Xianjie Huang. All rights reserved.
 */

package cellsnp

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/exascience/pargo/parallel"
	"github.com/shenwei356/xopen"
)

// Pileuper drives a whole genotyping run
type Pileuper struct {
	*Settings
	snvs    []*SNV
	samples []string
	bcIdx   map[string]int
}

// NewPileuper wraps validated settings into a runnable Pileuper
func NewPileuper(st *Settings) *Pileuper {
	return &Pileuper{Settings: st}
}

// outPath joins the output directory and appends .gz when requested
func (r *Pileuper) outPath(name string) string {
	p := filepath.Join(r.OutDir, name)
	if r.Gzip {
		p += ".gz"
	}
	return p
}

// shardPath names the temporary file of one worker, keeping the .gz
// suffix last so compression is preserved
func shardPath(final string, i int) string {
	if strings.HasSuffix(final, ".gz") {
		return fmt.Sprintf("%s.%d.gz", strings.TrimSuffix(final, ".gz"), i)
	}
	return fmt.Sprintf("%s.%d", final, i)
}

// load reads the SNV list and the sample or barcode names
func (r *Pileuper) load() error {
	var err error
	if r.snvs, err = LoadSNVs(r.RegionsVCF); err != nil {
		return err
	}
	log.Noticef("Loaded %d SNVs from `%s`", len(r.snvs), r.RegionsVCF)
	if r.UseBarcodes() {
		barcodes, err := LoadBarcodes(r.BarcodeFile)
		if err != nil {
			return err
		}
		r.samples = barcodes
		r.bcIdx = barcodeIndex(barcodes)
		log.Noticef("Loaded %d cell barcodes from `%s`", len(barcodes), r.BarcodeFile)
	} else {
		r.samples = r.SampleIDs
		log.Noticef("Bulk mode with %d samples over %d BAM files",
			len(r.samples), len(r.SamFiles))
	}
	return nil
}

// Run executes the pileup over all SNVs and writes all outputs
func (r *Pileuper) Run() error {
	start := time.Now()
	log.Noticef("cellsnp v%s starts", Version)
	if err := r.load(); err != nil {
		return err
	}
	if err := writeSamples(r.outPath(FileSamples), r.samples); err != nil {
		return err
	}

	adPath := r.outPath(FileMtxAD)
	dpPath := r.outPath(FileMtxDP)
	othPath := r.outPath(FileMtxOTH)
	basePath := r.outPath(FileVCFBase)
	cellPath := r.outPath(FileVCFCell)

	finals := []string{adPath, dpPath, othPath, basePath}
	writers := make([]*xopen.Writer, 0, 5)
	for _, p := range finals {
		w, err := xopen.Wopen(p)
		if err != nil {
			return fmt.Errorf("cannot create `%s`: %v", p, err)
		}
		writers = append(writers, w)
	}
	ad, dp, oth, base := writers[0], writers[1], writers[2], writers[3]
	var cell *xopen.Writer
	if r.Genotype {
		var err error
		if cell, err = xopen.Wopen(cellPath); err != nil {
			return fmt.Errorf("cannot create `%s`: %v", cellPath, err)
		}
		writers = append(writers, cell)
	}
	closeAll := func() error {
		var first error
		for _, w := range writers {
			if err := w.Close(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	for _, w := range []*xopen.Writer{ad, dp, oth} {
		fmt.Fprint(w, MtxHeader)
	}
	fmt.Fprint(base, BaseVCFHeader)
	if r.Genotype {
		fmt.Fprint(cell, cellVCFHeader(r.samples))
	}

	nth := min(r.NThread, len(r.snvs))
	var err error
	if nth == 1 {
		err = r.runSingle(workerOut{ad, dp, oth, base, cell}, closeAll,
			adPath, dpPath, othPath)
	} else {
		err = r.runParallel(nth, ad, dp, oth, base, cell, closeAll,
			adPath, dpPath, othPath, basePath, cellPath)
	}
	if err != nil {
		return err
	}
	log.Noticef("Success")
	log.Noticef("Time spent: %.0f seconds", time.Since(start).Seconds())
	return nil
}

// runSingle lets one worker write the final files directly, then fills
// in the matrix totals in place
func (r *Pileuper) runSingle(out workerOut, closeAll func() error, adPath, dpPath, othPath string) error {
	w := &worker{
		id:    0,
		snvs:  r.snvs,
		st:    r.Settings,
		nsmp:  len(r.samples),
		bcIdx: r.bcIdx,
		out:   out,
	}
	w.run()
	if err := closeAll(); err != nil {
		return fmt.Errorf("error closing outputs: %v", err)
	}
	if w.err != nil {
		return w.err
	}
	log.Noticef("%s SNVs passed the filters", Percentage(int(w.ns), len(r.snvs)))
	nsmp := len(r.samples)
	if err := rewriteMtx(adPath, w.ns, nsmp, w.nrAD); err != nil {
		return err
	}
	if err := rewriteMtx(dpPath, w.ns, nsmp, w.nrDP); err != nil {
		return err
	}
	if err := rewriteMtx(othPath, w.ns, nsmp, w.nrOTH); err != nil {
		return err
	}
	return nil
}

// runParallel slices the SNV list into nth contiguous chunks, fans the
// workers out and merges their shard files into the final outputs
func (r *Pileuper) runParallel(nth int, ad, dp, oth, base, cell *xopen.Writer,
	closeAll func() error, adPath, dpPath, othPath, basePath, cellPath string) error {

	size := (len(r.snvs) + nth - 1) / nth
	workers := make([]*worker, 0, nth)
	var shardWriters []*xopen.Writer
	var allShards []string
	adShards := make([]string, 0, nth)
	dpShards := make([]string, 0, nth)
	othShards := make([]string, 0, nth)
	baseShards := make([]string, 0, nth)
	cellShards := make([]string, 0, nth)

	openShard := func(final string, i int) (*xopen.Writer, string, error) {
		p := shardPath(final, i)
		w, err := xopen.Wopen(p)
		if err != nil {
			return nil, "", fmt.Errorf("cannot create shard `%s`: %v", p, err)
		}
		shardWriters = append(shardWriters, w)
		allShards = append(allShards, p)
		return w, p, nil
	}
	cleanup := func() {
		for _, w := range shardWriters {
			w.Close()
		}
		removeAll(allShards)
	}

	for i := 0; i < nth; i++ {
		beg := i * size
		end := min(beg+size, len(r.snvs))
		if beg >= end {
			break
		}
		var out workerOut
		var p string
		var err error
		if out.mtxAD, p, err = openShard(adPath, i); err != nil {
			cleanup()
			return err
		}
		adShards = append(adShards, p)
		if out.mtxDP, p, err = openShard(dpPath, i); err != nil {
			cleanup()
			return err
		}
		dpShards = append(dpShards, p)
		if out.mtxOTH, p, err = openShard(othPath, i); err != nil {
			cleanup()
			return err
		}
		othShards = append(othShards, p)
		if out.vcfBase, p, err = openShard(basePath, i); err != nil {
			cleanup()
			return err
		}
		baseShards = append(baseShards, p)
		if r.Genotype {
			if out.vcfCell, p, err = openShard(cellPath, i); err != nil {
				cleanup()
				return err
			}
			cellShards = append(cellShards, p)
		}
		workers = append(workers, &worker{
			id:    i,
			snvs:  r.snvs[beg:end],
			st:    r.Settings,
			nsmp:  len(r.samples),
			bcIdx: r.bcIdx,
			out:   out,
			shard: true,
		})
	}

	thunks := make([]func(), len(workers))
	for i, w := range workers {
		w := w
		thunks[i] = func() { w.run() }
	}
	log.Noticef("Pileup %d SNVs across %d threads", len(r.snvs), len(workers))
	parallel.Do(thunks...)

	for _, w := range shardWriters {
		if err := w.Close(); err != nil {
			removeAll(allShards)
			return fmt.Errorf("error closing shard: %v", err)
		}
	}
	var ns, nrAD, nrDP, nrOTH int64
	for _, w := range workers {
		if w.err != nil {
			removeAll(allShards)
			return w.err
		}
		ns += w.ns
		nrAD += w.nrAD
		nrDP += w.nrDP
		nrOTH += w.nrOTH
	}
	log.Noticef("%s SNVs passed the filters", Percentage(int(ns), len(r.snvs)))

	nsmp := len(r.samples)
	merge := func(w *xopen.Writer, nr int64, shards []string) error {
		fmt.Fprintf(w, "%d\t%d\t%d\n", ns, nsmp, nr)
		mns, mnr, err := mergeMtx(w, shards)
		if err != nil {
			return err
		}
		if mns != ns || mnr != nr {
			log.Warningf("merged totals differ: %d/%d SNVs, %d/%d records", mns, ns, mnr, nr)
		}
		return nil
	}
	if err := merge(ad, nrAD, adShards); err != nil {
		removeAll(allShards)
		return err
	}
	if err := merge(dp, nrDP, dpShards); err != nil {
		removeAll(allShards)
		return err
	}
	if err := merge(oth, nrOTH, othShards); err != nil {
		removeAll(allShards)
		return err
	}
	if err := mergeVCF(base, baseShards); err != nil {
		removeAll(allShards)
		return err
	}
	if r.Genotype {
		if err := mergeVCF(cell, cellShards); err != nil {
			removeAll(allShards)
			return err
		}
	}
	removeAll(allShards)
	return closeAll()
}
