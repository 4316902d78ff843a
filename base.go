/*
 *  base.go
 *  cellsnp
 *
 *  Created by Xianjie Huang on 04/18/20
 *  Copyright © 2020 Xianjie Huang. All rights reserved.
 */

package cellsnp

import (
	"fmt"
	"os"
	"path"
	"strings"

	logging "github.com/op/go-logging"
	"github.com/shenwei356/xopen"
)

const (
	// Version is the current version of cellsnp
	Version = "1.2.2"
	// DefaultCellTag is the BAM tag holding the cell barcode
	DefaultCellTag = "CB"
	// DefaultUMITag is the BAM tag holding the UMI
	DefaultUMITag = "UR"
	// DefaultMinCount is the minimum aggregated count for a SNV to be emitted
	DefaultMinCount = 20
	// DefaultMinMAF is the minimum minor allele frequency for a SNV to be emitted
	DefaultMinMAF = 0.0
	// DefaultMinLen is the minimum aligned length for a read to be counted
	DefaultMinLen = 30
	// DefaultMinMapQ is the minimum mapping quality for a read to be counted
	DefaultMinMapQ = 20
	// DefaultMaxFlag is the maximum FLAG value for a read to be counted
	DefaultMaxFlag = 255
	// MaxBaseQual caps the base quality used for genotyping
	MaxBaseQual = 45
	// MinBaseAccuracy floors the per-base accuracy used for genotyping
	MinBaseAccuracy = 0.25
	// NBase is the number of base codes: A, C, G, T and N
	NBase = 5
)

// baseChar maps a base code to its uppercase character
var baseChar = [NBase]byte{'A', 'C', 'G', 'T', 'N'}

// nt16Int maps the 4-bit encoded base from a BAM record to a base code
var nt16Int = [16]int{4, 0, 1, 4, 2, 4, 4, 4, 3, 4, 4, 4, 4, 4, 4, 4}

var log = logging.MustGetLogger("cellsnp")
var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05} %{shortfunc} | %{level:.6s} %{color:reset} %{message}`,
)

// Backend is the default stderr output
var Backend = logging.NewLogBackend(os.Stderr, "", 0)

// BackendFormatter contains the fancy debug formatter
var BackendFormatter = logging.NewBackendFormatter(Backend, format)

// baseCode converts a base character to its code, -1 if not one of ACGT
func baseCode(c byte) int {
	switch c {
	case 'A', 'a':
		return 0
	case 'C', 'c':
		return 1
	case 'G', 'g':
		return 2
	case 'T', 't':
		return 3
	}
	return -1
}

// RemoveExt returns the substring minus the extension
func RemoveExt(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}

// Percentage prints a human readable message of the percentage
func Percentage(a, b int) string {
	return fmt.Sprintf("%d of %d (%.1f %%)", a, b, float64(a)*100./float64(b))
}

// mustOpen opens a possibly gzipped file for reading and aborts on failure
func mustOpen(filename string) *xopen.Reader {
	r, err := xopen.Ropen(filename)
	if err != nil {
		log.Fatalf("Cannot open file `%s` (%v)", filename, err)
	}
	return r
}

// mustExist checks if a file exists and aborts if not
func mustExist(filename string) {
	if _, err := os.Stat(filename); err != nil {
		log.Fatalf("File `%s` not found", filename)
	}
}

// ErrorAbort logs the error and exits
func ErrorAbort(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

// min gets the minimum for two ints
func min(x, y int) int {
	if x < y {
		return x
	}
	return y
}

// max gets the maximum for two ints
func max(x, y int) int {
	if x > y {
		return x
	}
	return y
}
