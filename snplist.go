/*
 *  snplist.go
 *  cellsnp
 *
 *  Created by Xianjie Huang on 04/19/20
 *  Copyright © 2020 Xianjie Huang. All rights reserved.
 */

package cellsnp

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shenwei356/xopen"
)

// SNV is one candidate variant position. Pos is 0-based. Ref and Alt hold
// the single-base alleles from the input list, 0 when the list does not
// provide a usable one.
type SNV struct {
	Chrom string
	Pos   int64
	Ref   byte
	Alt   byte
}

// String outputs the 1-based representation of the SNV
func (v *SNV) String() string {
	return fmt.Sprintf("%s:%d", v.Chrom, v.Pos+1)
}

// singleBase returns the uppercase allele if the field is one of A/C/G/T,
// 0 otherwise
func singleBase(field string) byte {
	if len(field) != 1 {
		return 0
	}
	c := baseCode(field[0])
	if c < 0 {
		return 0
	}
	return baseChar[c]
}

// LoadSNVs parses a VCF or TSV file of candidate SNVs, transparently
// gzipped. Only CHROM and POS are required; single-base REF/ALT columns
// are kept when present.
func LoadSNVs(filename string) ([]*SNV, error) {
	fh, err := xopen.Ropen(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open SNV list `%s`: %v", filename, err)
	}
	defer fh.Close()

	log.Noticef("Parse SNV list `%s`", filename)
	var snvs []*SNV
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words := strings.Split(line, "\t")
		if len(words) < 2 {
			continue
		}
		pos, err := strconv.ParseInt(words[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad POS field `%s` in `%s`", words[1], filename)
		}
		snv := &SNV{Chrom: words[0], Pos: pos - 1}
		if len(words) >= 5 {
			snv.Ref = singleBase(words[3])
			snv.Alt = singleBase(words[4])
		}
		if snv.Ref != 0 && snv.Ref == snv.Alt {
			return nil, fmt.Errorf("REF equals ALT (%c) at %s", snv.Ref, snv)
		}
		snvs = append(snvs, snv)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading `%s`: %v", filename, err)
	}
	if len(snvs) == 0 {
		return nil, fmt.Errorf("no SNV found in `%s`", filename)
	}
	return snvs, nil
}

// LoadBarcodes reads one barcode per line, transparently gzipped, and
// returns them lexicographically sorted
func LoadBarcodes(filename string) ([]string, error) {
	fh, err := xopen.Ropen(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open barcode file `%s`: %v", filename, err)
	}
	defer fh.Close()

	var barcodes []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		bc := strings.TrimSpace(scanner.Text())
		if bc == "" {
			continue
		}
		if seen[bc] {
			return nil, fmt.Errorf("duplicated barcode `%s` in `%s`", bc, filename)
		}
		seen[bc] = true
		barcodes = append(barcodes, bc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading `%s`: %v", filename, err)
	}
	if len(barcodes) == 0 {
		return nil, fmt.Errorf("no barcode found in `%s`", filename)
	}
	sort.Strings(barcodes)
	return barcodes, nil
}

// LoadSampleIDs reads one sample name per line
func LoadSampleIDs(filename string) ([]string, error) {
	fh, err := xopen.Ropen(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open sample list `%s`: %v", filename, err)
	}
	defer fh.Close()

	var samples []string
	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name != "" {
			samples = append(samples, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading `%s`: %v", filename, err)
	}
	return samples, nil
}

// LoadLines reads non-empty lines from a text file, used for --samFileList
func LoadLines(filename string) ([]string, error) {
	return LoadSampleIDs(filename)
}

// barcodeIndex maps each barcode to its column index in the sorted list
func barcodeIndex(barcodes []string) map[string]int {
	idx := make(map[string]int, len(barcodes))
	for i, bc := range barcodes {
		idx[bc] = i
	}
	return idx
}
