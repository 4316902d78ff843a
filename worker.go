/*
 *  worker.go
 *  cellsnp
 *
 *  Created by Xianjie Huang on 05/08/20
 *  Copyright © 2020 Xianjie Huang. All rights reserved.
 */

package cellsnp

import (
	"fmt"
	"io"

	"github.com/biogo/hts/sam"
)

// workerOut bundles the five output streams of one worker. In shard mode
// these are per-thread temporary files, otherwise the final files.
type workerOut struct {
	mtxAD, mtxDP, mtxOTH io.Writer
	vcfBase, vcfCell     io.Writer
}

// worker pileups one contiguous slice of the SNV list. Each worker owns
// its BAM sessions and aggregation state, so workers never share memory.
type worker struct {
	id    int
	snvs  []*SNV
	st    *Settings
	nsmp  int
	bcIdx map[string]int
	out   workerOut
	shard bool

	ns, nrAD, nrDP, nrOTH int64
	err                   error
}

// run processes the worker's SNV slice. Errors are kept in w.err for the
// driver to collect.
func (w *worker) run() {
	var sessions []*Session
	defer func() {
		for _, s := range sessions {
			s.Close()
		}
	}()
	for _, fn := range w.st.SamFiles {
		s, err := OpenSession(fn)
		if err != nil {
			w.err = err
			return
		}
		sessions = append(sessions, s)
	}

	var cellTag, umiTag sam.Tag
	if w.st.CellTag != "" {
		cellTag = sam.NewTag(w.st.CellTag)
	}
	if w.st.UMITag != "" {
		umiTag = sam.NewTag(w.st.UMITag)
	}

	mplp := NewMplp(w.nsmp, w.bcIdx, w.st.UseUMI())
	step := max(len(w.snvs)/10, 1)
	for n, snv := range w.snvs {
		ok, err := w.pileupSNV(snv, sessions, mplp, cellTag, umiTag)
		if err != nil {
			w.err = fmt.Errorf("failed to pileup %s: %v", snv, err)
			return
		}
		if ok {
			w.ns++
			w.nrAD += int64(mplp.nrAD)
			w.nrDP += int64(mplp.nrDP)
			w.nrOTH += int64(mplp.nrOTH)
			w.emit(snv, mplp)
		}
		mplp.Reset()
		if (n+1)%step == 0 {
			log.Infof("[thread %d] %s SNVs processed", w.id, Percentage(n+1, len(w.snvs)))
		}
	}
}

// pileupSNV fetches the reads covering one SNV from every input file and
// aggregates them. Returns false when the SNV is filtered out.
func (w *worker) pileupSNV(snv *SNV, sessions []*Session, mplp *Mplp, cellTag, umiTag sam.Tag) (bool, error) {
	pos := int(snv.Pos)
	for i, sess := range sessions {
		it, err := sess.Fetch(snv.Chrom, pos, pos+1)
		if err != nil {
			return false, err
		}
		if it == nil {
			// chromosome not in this BAM, drop the SNV
			return false, nil
		}
		for it.Next() {
			rec := it.Record()
			probe, res := resolveRead(rec, pos, w.st, cellTag, umiTag)
			if res == probeError {
				it.Close()
				return false, fmt.Errorf("fetched read `%s` does not cover %s", rec.Name, snv)
			}
			if res != probeOK {
				continue
			}
			mplp.Push(probe, i)
		}
		err = it.Error()
		it.Close()
		if err != nil {
			return false, err
		}
	}
	if mplp.pushed < w.st.MinCount {
		return false, nil
	}
	return mplp.Stat(snv, w.st), nil
}

// emit writes the accepted SNV to the matrix and VCF streams. Shard
// matrices carry column and value only, with an empty line ending each
// SNV; final matrices carry the row number directly.
func (w *worker) emit(snv *SNV, m *Mplp) {
	emitTag := func(out io.Writer, value func(*Plp) int64) {
		for i, plp := range m.plp {
			v := value(plp)
			if v == 0 {
				continue
			}
			if w.shard {
				fmt.Fprintf(out, "%d\t%d\n", i+1, v)
			} else {
				fmt.Fprintf(out, "%d\t%d\t%d\n", w.ns, i+1, v)
			}
		}
		if w.shard {
			fmt.Fprintln(out)
		}
	}
	emitTag(w.out.mtxAD, func(p *Plp) int64 { return p.ad })
	emitTag(w.out.mtxDP, func(p *Plp) int64 { return p.dp })
	emitTag(w.out.mtxOTH, func(p *Plp) int64 { return p.oth })

	site := fmt.Sprintf("%s\t%d\t.\t%c\t%c\t.\tPASS\tAD=%d;DP=%d;OTH=%d",
		snv.Chrom, snv.Pos+1, baseChar[m.refIdx], baseChar[m.altIdx],
		m.ad, m.dp, m.oth)
	fmt.Fprintln(w.out.vcfBase, site)
	if w.st.Genotype {
		fmt.Fprint(w.out.vcfCell, site, "\tGT:AD:DP:OTH:PL:ALL")
		for _, plp := range m.plp {
			fmt.Fprint(w.out.vcfCell, "\t",
				formatSampleGeno(plp, m.refIdx, m.altIdx, w.st.DoubleGL))
		}
		fmt.Fprintln(w.out.vcfCell)
	}
}
