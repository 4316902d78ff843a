/*
 *  output.go
 *  cellsnp
 *
 *  Created by Xianjie Huang on 05/05/20
 *  Copyright © 2020 Xianjie Huang. All rights reserved.
 */

package cellsnp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shenwei356/xopen"
)

// Output file names inside the output directory
const (
	FileMtxAD   = "cellSNP.tag.AD.mtx"
	FileMtxDP   = "cellSNP.tag.DP.mtx"
	FileMtxOTH  = "cellSNP.tag.OTH.mtx"
	FileVCFBase = "cellSNP.base.vcf"
	FileVCFCell = "cellSNP.cells.vcf"
	FileSamples = "cellSNP.samples.tsv"
)

// MtxHeader is the MatrixMarket banner written before the totals line
const MtxHeader = "%%MatrixMarket matrix coordinate integer general\n%\n"

// BaseVCFHeader is the header of the site-only VCF
const BaseVCFHeader = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"

// cellVCFHeader builds the header of the genotype VCF, sample columns
// included
func cellVCFHeader(samples []string) string {
	var sb strings.Builder
	sb.WriteString("##fileformat=VCFv4.2\n")
	sb.WriteString("##source=cellSNP_v" + Version + "\n")
	sb.WriteString("##FILTER=<ID=PASS,Description=\"All filters passed\">\n")
	sb.WriteString("##FILTER=<ID=.,Description=\"Filter info not available\">\n")
	sb.WriteString("##INFO=<ID=DP,Number=1,Type=Integer,Description=\"total counts for ALT and REF\">\n")
	sb.WriteString("##INFO=<ID=AD,Number=1,Type=Integer,Description=\"total counts for ALT\">\n")
	sb.WriteString("##INFO=<ID=OTH,Number=1,Type=Integer,Description=\"total counts for other bases from REF and ALT\">\n")
	sb.WriteString("##FORMAT=<ID=GT,Number=1,Type=String,Description=\"Genotype\">\n")
	sb.WriteString("##FORMAT=<ID=PL,Number=G,Type=Integer,Description=\"List of Phred-scaled genotype likelihoods\">\n")
	sb.WriteString("##FORMAT=<ID=DP,Number=1,Type=Integer,Description=\"total counts for ALT and REF\">\n")
	sb.WriteString("##FORMAT=<ID=AD,Number=1,Type=Integer,Description=\"total counts for ALT\">\n")
	sb.WriteString("##FORMAT=<ID=OTH,Number=1,Type=Integer,Description=\"total counts for other bases from REF and ALT\">\n")
	sb.WriteString("##FORMAT=<ID=ALL,Number=5,Type=Integer,Description=\"total counts for all bases in order of A,C,G,T,N\">\n")
	for i := 1; i <= 22; i++ {
		sb.WriteString(fmt.Sprintf("##contig=<ID=%d>\n", i))
	}
	sb.WriteString("##contig=<ID=X>\n##contig=<ID=Y>\n")
	sb.WriteString("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT")
	for _, smp := range samples {
		sb.WriteString("\t" + smp)
	}
	sb.WriteString("\n")
	return sb.String()
}

// writeSamples writes the sample (or barcode) names, one per line
func writeSamples(path string, samples []string) error {
	w, err := xopen.Wopen(path)
	if err != nil {
		return fmt.Errorf("cannot create `%s`: %v", path, err)
	}
	for _, smp := range samples {
		fmt.Fprintln(w, smp)
	}
	return w.Close()
}

// mergeMtx appends shard matrix files to w, renumbering the SNV rows
// with a running 1-based counter. Shard lines hold column and value
// only; an empty line ends the entries of one SNV. Returns the number of
// SNVs and records merged.
func mergeMtx(w io.Writer, shards []string) (ns, nr int64, err error) {
	row := int64(1)
	for _, shard := range shards {
		fh, err := xopen.Ropen(shard)
		if err != nil {
			return 0, 0, fmt.Errorf("cannot open shard `%s`: %v", shard, err)
		}
		scanner := bufio.NewScanner(fh)
		scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				row++
				continue
			}
			fmt.Fprintf(w, "%d\t%s\n", row, line)
			nr++
		}
		serr := scanner.Err()
		fh.Close()
		if serr != nil {
			return 0, 0, fmt.Errorf("error reading shard `%s`: %v", shard, serr)
		}
	}
	return row - 1, nr, nil
}

// mergeVCF appends shard VCF files to w unchanged
func mergeVCF(w io.Writer, shards []string) error {
	for _, shard := range shards {
		fh, err := xopen.Ropen(shard)
		if err != nil {
			return fmt.Errorf("cannot open shard `%s`: %v", shard, err)
		}
		_, cerr := io.Copy(w, fh)
		fh.Close()
		if cerr != nil {
			return fmt.Errorf("error merging shard `%s`: %v", shard, cerr)
		}
	}
	return nil
}

// rewriteMtx rewrites a matrix written by a single worker, inserting the
// totals line after the banner. The worker could not know the totals
// before processing all SNVs.
func rewriteMtx(path string, ns int64, nsmp int, nr int64) error {
	in, err := xopen.Ropen(path)
	if err != nil {
		return fmt.Errorf("cannot open `%s`: %v", path, err)
	}
	// keep the .gz suffix last so the tmp file gets the same compression
	tmp := path + ".tmp"
	if strings.HasSuffix(path, ".gz") {
		tmp = strings.TrimSuffix(path, ".gz") + ".tmp.gz"
	}
	out, err := xopen.Wopen(tmp)
	if err != nil {
		in.Close()
		return fmt.Errorf("cannot create `%s`: %v", tmp, err)
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	inserted := false
	for scanner.Scan() {
		line := scanner.Text()
		if !inserted && !strings.HasPrefix(line, "%") {
			fmt.Fprintf(out, "%d\t%d\t%d\n", ns, nsmp, nr)
			inserted = true
		}
		fmt.Fprintln(out, line)
	}
	if !inserted {
		fmt.Fprintf(out, "%d\t%d\t%d\n", ns, nsmp, nr)
	}
	serr := scanner.Err()
	in.Close()
	if err := out.Close(); err != nil {
		return fmt.Errorf("error writing `%s`: %v", tmp, err)
	}
	if serr != nil {
		os.Remove(tmp)
		return fmt.Errorf("error reading `%s`: %v", path, serr)
	}
	return os.Rename(tmp, path)
}

// removeAll deletes shard files, best effort
func removeAll(paths []string) {
	for _, p := range paths {
		os.Remove(p)
	}
}
