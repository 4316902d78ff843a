/*
 *  config_test.go
 *  cellsnp
 *
 *  Created by Xianjie Huang on 05/16/20
 *  Copyright © 2020 Xianjie Huang. All rights reserved.
 */

package cellsnp_test

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/single-cell-genetics/cellsnp"
)

// validSettings builds a Settings that passes Validate, with stub input
// files under a temporary directory
func validSettings(t *testing.T) *cellsnp.Settings {
	t.Helper()
	dir := t.TempDir()
	bam := filepath.Join(dir, "sample.bam")
	vcf := filepath.Join(dir, "snv.vcf")
	for _, fn := range []string{bam, vcf} {
		if err := ioutil.WriteFile(fn, []byte{}, 0644); err != nil {
			t.Fatal(err)
		}
	}
	st := cellsnp.NewSettings()
	st.SamFiles = []string{bam}
	st.OutDir = filepath.Join(dir, "out")
	st.RegionsVCF = vcf
	return st
}

func TestValidateBulkDefaults(t *testing.T) {
	st := validSettings(t)
	if err := st.Validate(); err != nil {
		t.Fatal(err)
	}
	if len(st.SampleIDs) != 1 || st.SampleIDs[0] != "Sample_0" {
		t.Fatalf("sample IDs = %v, expected [Sample_0]", st.SampleIDs)
	}
	// bulk mode resolves UMItag Auto to off
	if st.UseUMI() {
		t.Fatal("bulk mode kept UMI deduplication on")
	}
	if st.UseBarcodes() {
		t.Fatal("bulk mode reports barcodes")
	}
}

func TestValidateDropletDefaults(t *testing.T) {
	st := validSettings(t)
	st.BarcodeFile = "barcodes.tsv"
	if err := st.Validate(); err != nil {
		t.Fatal(err)
	}
	// droplet mode resolves UMItag Auto to UR
	if st.UMITag != cellsnp.DefaultUMITag {
		t.Fatalf("UMI tag = %q, expected %q", st.UMITag, cellsnp.DefaultUMITag)
	}
	if !st.UseBarcodes() || !st.UseUMI() {
		t.Fatal("droplet mode lost barcode or UMI handling")
	}
}

func TestValidateTagResolution(t *testing.T) {
	st := validSettings(t)
	st.CellTag = "None"
	st.UMITag = "None"
	if err := st.Validate(); err != nil {
		t.Fatal(err)
	}
	if st.CellTag != "" || st.UMITag != "" {
		t.Fatalf("tags = %q/%q, expected empty", st.CellTag, st.UMITag)
	}

	st = validSettings(t)
	st.UMITag = "XYZ"
	if err := st.Validate(); err == nil {
		t.Fatal("three-character tag accepted")
	}
}

func TestValidateErrors(t *testing.T) {
	st := cellsnp.NewSettings()
	if err := st.Validate(); err == nil {
		t.Fatal("empty settings accepted")
	}

	st = validSettings(t)
	st.SamFiles = append(st.SamFiles, "/no/such/file.bam")
	if err := st.Validate(); err == nil {
		t.Fatal("missing BAM file accepted")
	}

	st = validSettings(t)
	st.RegionsVCF = ""
	if err := st.Validate(); err == nil {
		t.Fatal("missing SNV list accepted")
	}

	st = validSettings(t)
	st.BarcodeFile = "barcodes.tsv"
	st.SampleIDs = []string{"A"}
	if err := st.Validate(); err == nil {
		t.Fatal("barcode file with sample IDs accepted")
	}

	st = validSettings(t)
	st.BarcodeFile = "barcodes.tsv"
	st.CellTag = "None"
	if err := st.Validate(); err == nil {
		t.Fatal("barcode file without a cell tag accepted")
	}

	st = validSettings(t)
	st.SampleIDs = []string{"A", "B"}
	if err := st.Validate(); err == nil {
		t.Fatal("sample ID count mismatch accepted")
	}

	st = validSettings(t)
	st.MinMAF = 1.5
	if err := st.Validate(); err == nil {
		t.Fatal("minMAF above 1 accepted")
	}
}

func TestValidateThreadFloor(t *testing.T) {
	st := validSettings(t)
	st.NThread = 0
	if err := st.Validate(); err != nil {
		t.Fatal(err)
	}
	if st.NThread != 1 {
		t.Fatalf("NThread = %d, expected 1", st.NThread)
	}
}
