/*
 *  config.go
 *  cellsnp
 *
 *  Created by Xianjie Huang on 04/18/20
 *  Copyright © 2020 Xianjie Huang. All rights reserved.
 */

package cellsnp

import (
	"fmt"
	"os"
)

// Settings holds all command line options after resolution
type Settings struct {
	SamFiles    []string // input BAM files, one per sample in bulk mode
	OutDir      string   // output directory, created if missing
	RegionsVCF  string   // candidate SNV list, VCF or TSV, possibly gzipped
	BarcodeFile string   // cell barcode list for droplet mode
	SampleIDs   []string // sample names for bulk mode
	Chroms      []string // kept for CLI compatibility, fetch mode ignores it

	CellTag string // BAM tag for cell barcodes, "None" disables
	UMITag  string // BAM tag for UMIs, "Auto" or "None" for resolution

	MinCount int
	MinMAF   float64
	MinLen   int
	MinMapQ  int
	MaxFlag  int
	NThread  int

	Genotype bool
	DoubleGL bool
	Gzip     bool
}

// NewSettings returns a Settings with the default thresholds filled in
func NewSettings() *Settings {
	return &Settings{
		CellTag:  DefaultCellTag,
		UMITag:   "Auto",
		MinCount: DefaultMinCount,
		MinMAF:   DefaultMinMAF,
		MinLen:   DefaultMinLen,
		MinMapQ:  DefaultMinMapQ,
		MaxFlag:  DefaultMaxFlag,
		NThread:  1,
	}
}

// UseBarcodes reports whether reads are routed by cell barcode
func (s *Settings) UseBarcodes() bool {
	return s.BarcodeFile != ""
}

// UseUMI reports whether reads are deduplicated by UMI
func (s *Settings) UseUMI() bool {
	return s.UMITag != ""
}

// Validate checks option consistency, resolves the tag shorthands and
// creates the output directory
func (s *Settings) Validate() error {
	if len(s.SamFiles) == 0 {
		return fmt.Errorf("no input BAM file, use --samFile or --samFileList")
	}
	for _, fn := range s.SamFiles {
		if _, err := os.Stat(fn); err != nil {
			return fmt.Errorf("cannot access BAM file `%s`: %v", fn, err)
		}
	}
	if s.OutDir == "" {
		return fmt.Errorf("output directory is required, use --outDir")
	}
	if err := os.MkdirAll(s.OutDir, 0755); err != nil {
		return fmt.Errorf("cannot create output directory `%s`: %v", s.OutDir, err)
	}
	if s.RegionsVCF == "" {
		return fmt.Errorf("a SNV list is required, use --regionsVCF")
	}
	if s.BarcodeFile != "" && len(s.SampleIDs) > 0 {
		return fmt.Errorf("--barcodeFile and sample IDs are mutually exclusive")
	}
	if s.CellTag == "None" {
		s.CellTag = ""
	}
	if s.BarcodeFile != "" && s.CellTag == "" {
		return fmt.Errorf("--barcodeFile requires a cell tag, do not set --cellTAG to None")
	}
	if s.BarcodeFile == "" && len(s.SampleIDs) == 0 {
		// bulk mode without names, one default sample per input file
		for i := range s.SamFiles {
			s.SampleIDs = append(s.SampleIDs, fmt.Sprintf("Sample_%d", i))
		}
	}
	if len(s.SampleIDs) > 0 && len(s.SampleIDs) != len(s.SamFiles) {
		return fmt.Errorf("%d sample IDs for %d BAM files", len(s.SampleIDs), len(s.SamFiles))
	}
	switch s.UMITag {
	case "Auto":
		if s.BarcodeFile != "" {
			s.UMITag = DefaultUMITag
		} else {
			s.UMITag = ""
		}
	case "None":
		s.UMITag = ""
	}
	if len(s.CellTag) != 0 && len(s.CellTag) != 2 {
		return fmt.Errorf("cell tag `%s` is not a two-character BAM tag", s.CellTag)
	}
	if len(s.UMITag) != 0 && len(s.UMITag) != 2 {
		return fmt.Errorf("UMI tag `%s` is not a two-character BAM tag", s.UMITag)
	}
	if s.MinMAF < 0 || s.MinMAF > 1 {
		return fmt.Errorf("--minMAF must be within [0, 1], got %g", s.MinMAF)
	}
	if s.NThread < 1 {
		s.NThread = 1
	}
	return nil
}
