/*
 *  pileup.go
 *  cellsnp
 *
 *  Created by Xianjie Huang on 04/25/20
 *  Copyright © 2020 Xianjie Huang. All rights reserved.
 */

package cellsnp

// Plp aggregates the reads of one sample at one SNV
type Plp struct {
	bc  [NBase]int64  // base counts
	qu  [NBase][]byte // base qualities per base code
	umi map[string]struct{}

	tc, ad, dp, oth int64
}

// reset clears the counters while keeping the quality slices; a
// non-empty UMI set is replaced by a fresh map
func (p *Plp) reset() {
	for j := 0; j < NBase; j++ {
		p.bc[j] = 0
		p.qu[j] = p.qu[j][:0]
	}
	p.tc, p.ad, p.dp, p.oth = 0, 0, 0, 0
	if p.umi != nil && len(p.umi) > 0 {
		p.umi = make(map[string]struct{})
	}
}

// Mplp aggregates all samples at one SNV
type Mplp struct {
	plp    []*Plp
	bcIdx  map[string]int // nil in bulk mode
	useUMI bool

	bc              [NBase]int64
	tc, ad, dp, oth int64

	refIdx, altIdx int // effective alleles after Stat
	infRID, infAID int // inferred alleles

	nrAD, nrDP, nrOTH int // samples with non-zero values
	pushed            int
}

// NewMplp builds the per-SNV aggregation state for nsmp samples. bcIdx is
// the barcode to column map in droplet mode, nil in bulk mode.
func NewMplp(nsmp int, bcIdx map[string]int, useUMI bool) *Mplp {
	m := &Mplp{
		plp:    make([]*Plp, nsmp),
		bcIdx:  bcIdx,
		useUMI: useUMI,
		refIdx: -1,
		altIdx: -1,
	}
	for i := range m.plp {
		p := &Plp{}
		if useUMI {
			p.umi = make(map[string]struct{})
		}
		m.plp[i] = p
	}
	return m
}

// Reset clears the state so the Mplp can take the next SNV
func (m *Mplp) Reset() {
	for _, p := range m.plp {
		p.reset()
	}
	for j := 0; j < NBase; j++ {
		m.bc[j] = 0
	}
	m.tc, m.ad, m.dp, m.oth = 0, 0, 0, 0
	m.refIdx, m.altIdx = -1, -1
	m.infRID, m.infAID = 0, 0
	m.nrAD, m.nrDP, m.nrOTH = 0, 0, 0
	m.pushed = 0
}

// Push routes one resolved read into its sample. sid is the input file
// index in bulk mode and ignored in droplet mode. The return value tells
// whether the read was accepted; a barcode absent from the list is
// dropped silently. The first read of a UMI wins, later reads with the
// same UMI are no-ops but still count as accepted.
func (m *Mplp) Push(p ReadProbe, sid int) bool {
	idx := sid
	if m.bcIdx != nil {
		i, ok := m.bcIdx[p.Cell]
		if !ok {
			return false
		}
		idx = i
	}
	if idx < 0 || idx >= len(m.plp) {
		return false
	}
	plp := m.plp[idx]
	if m.useUMI {
		if _, seen := plp.umi[p.UMI]; seen {
			m.pushed++
			return true
		}
		plp.umi[p.UMI] = struct{}{}
	}
	plp.bc[p.Base]++
	plp.qu[p.Base] = append(plp.qu[p.Base], p.Qual)
	m.pushed++
	return true
}

// InferAllele picks REF as the most frequent of A/C/G/T and ALT as the
// runner-up, lower base code winning ties. When no A/C/G/T was seen both
// are N.
func InferAllele(bc [NBase]int64) (int, int) {
	ref := 0
	for j := 1; j < 4; j++ {
		if bc[j] > bc[ref] {
			ref = j
		}
	}
	if bc[ref] == 0 {
		return 4, 4
	}
	alt := -1
	for j := 0; j < 4; j++ {
		if j == ref {
			continue
		}
		if alt < 0 || bc[j] > bc[alt] {
			alt = j
		}
	}
	return ref, alt
}

// Stat aggregates the per-sample counts, applies the SNV level filters
// and fixes the effective REF/ALT pair. It returns false when the SNV is
// filtered out.
func (m *Mplp) Stat(snv *SNV, st *Settings) bool {
	for _, plp := range m.plp {
		for j := 0; j < NBase; j++ {
			plp.tc += plp.bc[j]
			m.bc[j] += plp.bc[j]
		}
		m.tc += plp.tc
	}
	if m.tc < int64(st.MinCount) {
		return false
	}
	m.infRID, m.infAID = InferAllele(m.bc)
	if float64(m.bc[m.infAID]) < float64(m.tc)*st.MinMAF {
		return false
	}
	m.refIdx = baseCode(snv.Ref)
	m.altIdx = baseCode(snv.Alt)
	if m.refIdx < 0 || m.altIdx < 0 {
		m.refIdx, m.altIdx = m.infRID, m.infAID
	}
	for _, plp := range m.plp {
		plp.ad = plp.bc[m.altIdx]
		plp.dp = plp.bc[m.refIdx] + plp.bc[m.altIdx]
		plp.oth = plp.tc - plp.dp
		m.ad += plp.ad
		m.dp += plp.dp
		m.oth += plp.oth
		if plp.ad > 0 {
			m.nrAD++
		}
		if plp.dp > 0 {
			m.nrDP++
		}
		if plp.oth > 0 {
			m.nrOTH++
		}
	}
	return true
}
