/*
 *  pileup_test.go
 *  cellsnp
 *
 *  Created by Xianjie Huang on 05/16/20
 *  Copyright © 2020 Xianjie Huang. All rights reserved.
 */

package cellsnp

import (
	"testing"
)

func TestInferAllele(t *testing.T) {
	cases := []struct {
		bc       [NBase]int64
		ref, alt int
	}{
		{[NBase]int64{0, 0, 0, 0, 0}, 4, 4},
		{[NBase]int64{10, 0, 5, 0, 0}, 0, 2},
		{[NBase]int64{5, 5, 0, 0, 0}, 0, 1},
		{[NBase]int64{0, 0, 5, 5, 0}, 2, 3},
		{[NBase]int64{0, 0, 0, 0, 9}, 4, 4},
	}
	for _, c := range cases {
		ref, alt := InferAllele(c.bc)
		if ref != c.ref || alt != c.alt {
			t.Fatalf("InferAllele(%v) = (%d, %d), expected (%d, %d)",
				c.bc, ref, alt, c.ref, c.alt)
		}
	}
}

func probe(base int, qual byte, cell, umi string) ReadProbe {
	return ReadProbe{Base: base, Qual: qual, Cell: cell, UMI: umi}
}

func TestPushBulkAndStat(t *testing.T) {
	st := NewSettings()
	st.MinCount = 3

	m := NewMplp(2, nil, false)
	// sample 0: 4xA 2xG, sample 1: 3xA 1xT
	for i := 0; i < 4; i++ {
		m.Push(probe(0, 30, "", ""), 0)
	}
	for i := 0; i < 2; i++ {
		m.Push(probe(2, 30, "", ""), 0)
	}
	for i := 0; i < 3; i++ {
		m.Push(probe(0, 30, "", ""), 1)
	}
	m.Push(probe(3, 30, "", ""), 1)

	snv := &SNV{Chrom: "1", Pos: 99}
	if !m.Stat(snv, st) {
		t.Fatal("SNV unexpectedly filtered")
	}
	if m.infRID != 0 || m.infAID != 2 {
		t.Fatalf("inferred alleles (%d, %d), expected (0, 2)", m.infRID, m.infAID)
	}
	if m.ad != 2 || m.dp != 9 || m.oth != 1 {
		t.Fatalf("AD/DP/OTH = %d/%d/%d, expected 2/9/1", m.ad, m.dp, m.oth)
	}
	// mass balance across samples
	var ad, dp, oth int64
	for _, p := range m.plp {
		ad += p.ad
		dp += p.dp
		oth += p.oth
	}
	if ad != m.ad || dp != m.dp || oth != m.oth {
		t.Fatalf("per-sample sums %d/%d/%d do not match totals %d/%d/%d",
			ad, dp, oth, m.ad, m.dp, m.oth)
	}
	if m.dp+m.oth != m.tc {
		t.Fatalf("DP+OTH = %d, total count = %d", m.dp+m.oth, m.tc)
	}
	if m.nrAD != 1 || m.nrDP != 2 || m.nrOTH != 1 {
		t.Fatalf("nrAD/nrDP/nrOTH = %d/%d/%d, expected 1/2/1", m.nrAD, m.nrDP, m.nrOTH)
	}
}

func TestPushBarcodeRouting(t *testing.T) {
	bcIdx := barcodeIndex([]string{"AAAC", "AAAG"})
	m := NewMplp(2, bcIdx, false)
	if !m.Push(probe(0, 30, "AAAG", ""), -1) {
		t.Fatal("known barcode rejected")
	}
	if m.Push(probe(0, 30, "TTTT", ""), -1) {
		t.Fatal("unknown barcode accepted")
	}
	if m.plp[1].bc[0] != 1 || m.plp[0].bc[0] != 0 {
		t.Fatalf("read routed to the wrong column: %v %v", m.plp[0].bc, m.plp[1].bc)
	}
	if m.pushed != 1 {
		t.Fatalf("pushed = %d, expected 1", m.pushed)
	}
}

func TestUMIDedup(t *testing.T) {
	m := NewMplp(1, nil, true)
	// first read of a UMI wins, the second changes nothing
	m.Push(probe(0, 30, "", "UMI1"), 0)
	m.Push(probe(2, 10, "", "UMI1"), 0)
	m.Push(probe(2, 10, "", "UMI2"), 0)
	if m.plp[0].bc[0] != 1 || m.plp[0].bc[2] != 1 {
		t.Fatalf("base counts %v, expected one A and one G", m.plp[0].bc)
	}
	if len(m.plp[0].qu[0]) != 1 || len(m.plp[0].qu[2]) != 1 {
		t.Fatal("duplicated UMI pushed its quality")
	}
	if m.pushed != 3 {
		t.Fatalf("pushed = %d, expected 3", m.pushed)
	}
}

func TestStatMinCount(t *testing.T) {
	st := NewSettings()
	st.MinCount = 5
	m := NewMplp(1, nil, false)
	for i := 0; i < 4; i++ {
		m.Push(probe(0, 30, "", ""), 0)
	}
	if m.Stat(&SNV{Chrom: "1", Pos: 0}, st) {
		t.Fatal("SNV with 4 reads passed minCOUNT = 5")
	}
}

func TestStatMinMAF(t *testing.T) {
	st := NewSettings()
	st.MinCount = 1
	st.MinMAF = 0.2
	m := NewMplp(1, nil, false)
	// 9 A, 1 G: alt frequency 0.1
	for i := 0; i < 9; i++ {
		m.Push(probe(0, 30, "", ""), 0)
	}
	m.Push(probe(2, 30, "", ""), 0)
	if m.Stat(&SNV{Chrom: "1", Pos: 0}, st) {
		t.Fatal("SNV with MAF 0.1 passed minMAF = 0.2")
	}

	// raising a threshold never admits a previously rejected SNV
	m2 := NewMplp(1, nil, false)
	for i := 0; i < 9; i++ {
		m2.Push(probe(0, 30, "", ""), 0)
	}
	m2.Push(probe(2, 30, "", ""), 0)
	st.MinMAF = 0.05
	if !m2.Stat(&SNV{Chrom: "1", Pos: 0}, st) {
		t.Fatal("SNV with MAF 0.1 rejected at minMAF = 0.05")
	}
}

func TestStatListAlleles(t *testing.T) {
	st := NewSettings()
	st.MinCount = 1
	m := NewMplp(1, nil, false)
	// 6 A, 4 G but the list says REF=C ALT=T
	for i := 0; i < 6; i++ {
		m.Push(probe(0, 30, "", ""), 0)
	}
	for i := 0; i < 4; i++ {
		m.Push(probe(2, 30, "", ""), 0)
	}
	snv := &SNV{Chrom: "1", Pos: 0, Ref: 'C', Alt: 'T'}
	if !m.Stat(snv, st) {
		t.Fatal("SNV unexpectedly filtered")
	}
	if m.refIdx != 1 || m.altIdx != 3 {
		t.Fatalf("effective alleles (%d, %d), expected the list pair (1, 3)", m.refIdx, m.altIdx)
	}
	if m.dp != 0 || m.oth != 10 {
		t.Fatalf("DP/OTH = %d/%d, expected 0/10", m.dp, m.oth)
	}
}

func TestMplpReset(t *testing.T) {
	m := NewMplp(1, nil, true)
	m.Push(probe(0, 30, "", "U1"), 0)
	m.Stat(&SNV{Chrom: "1", Pos: 0}, NewSettings())
	m.Reset()
	if m.tc != 0 || m.pushed != 0 || m.plp[0].bc[0] != 0 {
		t.Fatal("Reset left counts behind")
	}
	// the UMI set must be cleared too
	m.Push(probe(0, 30, "", "U1"), 0)
	if m.plp[0].bc[0] != 1 {
		t.Fatal("UMI from the previous SNV still deduplicates")
	}
}
