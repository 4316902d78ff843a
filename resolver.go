/*
 *  resolver.go
 *  cellsnp
 *
 *  Created by Xianjie Huang on 04/23/20
 *  Copyright © 2020 Xianjie Huang. All rights reserved.
 */

package cellsnp

import (
	"github.com/biogo/hts/sam"
)

// probeResult classifies what one read contributes at a SNV position
type probeResult int

const (
	// probeOK means the base and quality were resolved
	probeOK probeResult = iota
	// probeMalformed means a required tag is missing from the read
	probeMalformed
	// probeFiltered means the read fails a quality or coverage filter
	probeFiltered
	// probeError means the CIGAR walk never reached the position, which
	// a fetched read must cover. Fatal to the worker.
	probeError
)

// ReadProbe is the information one read carries at a single position
type ReadProbe struct {
	Base   int // base code 0..4
	Qual   byte
	Cell   string
	UMI    string
	AlnLen int
}

// auxString fetches a string-typed aux tag from a record
func auxString(rec *sam.Record, tag sam.Tag) (string, bool) {
	aux := rec.AuxFields.Get(tag)
	if aux == nil {
		return "", false
	}
	s, ok := aux.Value().(string)
	return s, ok
}

// baseAt decodes the 4-bit encoded base at read offset i
func baseAt(rec *sam.Record, i int) int {
	d := byte(rec.Seq.Seq[i>>1])
	if i&1 == 0 {
		d >>= 4
	} else {
		d &= 0xf
	}
	return nt16Int[d]
}

// resolveRead walks the CIGAR of a fetched read to find the base it
// aligns to pos, applying the read level filters. Tag checks come first
// so that malformed reads are told apart from filtered ones.
func resolveRead(rec *sam.Record, pos int, st *Settings, cellTag, umiTag sam.Tag) (ReadProbe, probeResult) {
	var p ReadProbe
	if st.UseUMI() {
		umi, ok := auxString(rec, umiTag)
		if !ok {
			return p, probeMalformed
		}
		p.UMI = umi
	}
	if st.UseBarcodes() {
		cell, ok := auxString(rec, cellTag)
		if !ok {
			return p, probeMalformed
		}
		p.Cell = cell
	}
	if int(rec.MapQ) < st.MinMapQ {
		return p, probeFiltered
	}
	if int(uint16(rec.Flags)) > st.MaxFlag {
		return p, probeFiltered
	}

	// x tracks the reference, y the read. laln accumulates the aligned
	// length over the whole CIGAR.
	x, y, laln := rec.Pos, 0, 0
	qpos := -1
	for _, co := range rec.Cigar {
		n := co.Len()
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			if x <= pos && pos < x+n {
				qpos = y + (pos - x)
			}
			x += n
			y += n
			laln += n
		case sam.CigarDeletion, sam.CigarSkipped:
			if x <= pos && pos < x+n {
				// the read spans pos with a deletion or ref skip
				return p, probeFiltered
			}
			x += n
		case sam.CigarInsertion, sam.CigarSoftClipped:
			y += n
		}
	}
	if qpos < 0 {
		return p, probeError
	}
	if laln < st.MinLen {
		return p, probeFiltered
	}
	if qpos >= len(rec.Seq.Seq)*2 {
		return p, probeError
	}
	p.AlnLen = laln
	p.Base = baseAt(rec, qpos)
	if qpos < len(rec.Qual) {
		p.Qual = rec.Qual[qpos]
	}
	return p, probeOK
}
