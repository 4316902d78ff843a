/*
 *  genotype.go
 *  cellsnp
 *
 *  Created by Xianjie Huang on 05/02/20
 *  Copyright © 2020 Xianjie Huang. All rights reserved.
 */

package cellsnp

import (
	"fmt"
	"math"
	"strings"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

// qualVector converts one base quality to its accuracy/error terms. The
// quality is capped at MaxBaseQual and the accuracy floored at
// MinBaseAccuracy. Columns are log(acc), log(err/3), acc, err/3.
func qualVector(q byte) [4]float64 {
	if q > MaxBaseQual {
		q = MaxBaseQual
	}
	e := math.Pow(10, -float64(q)/10)
	acc := 1 - e
	if acc < MinBaseAccuracy {
		acc = MinBaseAccuracy
		e = 1 - acc
	}
	return [4]float64{math.Log(acc), math.Log(e / 3), acc, e / 3}
}

// qualMatrix accumulates the quality vectors of one sample into an
// NBase x 4 matrix, one row per base code
func qualMatrix(plp *Plp) *mat64.Dense {
	m := mat64.NewDense(NBase, 4, nil)
	for j := 0; j < NBase; j++ {
		for _, q := range plp.qu[j] {
			v := qualVector(q)
			for k := 0; k < 4; k++ {
				m.Set(j, k, m.At(j, k)+v[k])
			}
		}
	}
	return m
}

// genoLikelihoods computes log likelihoods over the alt allele dosages
// {0, 1, 2}, or {0, 0.5, 1, 1.5, 2} when doubleGL is set. Homozygous
// states use the exact per-base log terms; fractional dosages mix the
// mean accuracy and error of the REF and ALT rows.
func genoLikelihoods(qmat *mat64.Dense, bc *[NBase]int64, refIdx, altIdx int, doubleGL bool) []float64 {
	nRef := float64(bc[refIdx])
	nAlt := float64(bc[altIdx])
	llRR := qmat.At(refIdx, 0) + qmat.At(altIdx, 1)
	llAA := qmat.At(altIdx, 0) + qmat.At(refIdx, 1)
	mix := func(f float64) float64 {
		ll := 0.0
		if nRef > 0 {
			acc := qmat.At(refIdx, 2) / nRef
			err := qmat.At(refIdx, 3) / nRef
			ll += nRef * math.Log((1-f)*acc+f*err)
		}
		if nAlt > 0 {
			acc := qmat.At(altIdx, 2) / nAlt
			err := qmat.At(altIdx, 3) / nAlt
			ll += nAlt * math.Log(f*acc+(1-f)*err)
		}
		return ll
	}
	if doubleGL {
		return []float64{llRR, mix(0.25), mix(0.5), mix(0.75), llAA}
	}
	return []float64{llRR, mix(0.5), llAA}
}

// phredScale normalizes log likelihoods to PL values with the best
// genotype at 0
func phredScale(ll []float64) []int {
	best := floats.Max(ll)
	pl := make([]int, len(ll))
	for i, v := range ll {
		pl[i] = int(math.Floor(-10*(v-best)/math.Ln10 + 0.5))
	}
	return pl
}

// genotypeString maps the best state to a diploid GT. Half dosages in
// the 5-state mode collapse onto the nearest diploid genotype.
func genotypeString(ll []float64, doubleGL bool) string {
	k := floats.MaxIdx(ll)
	if doubleGL {
		switch k {
		case 0:
			return "0/0"
		case 1, 2:
			return "1/0"
		default:
			return "1/1"
		}
	}
	switch k {
	case 0:
		return "0/0"
	case 1:
		return "1/0"
	}
	return "1/1"
}

// formatSampleGeno renders the GT:AD:DP:OTH:PL:ALL field of one sample
func formatSampleGeno(plp *Plp, refIdx, altIdx int, doubleGL bool) string {
	qmat := qualMatrix(plp)
	ll := genoLikelihoods(qmat, &plp.bc, refIdx, altIdx, doubleGL)
	pl := phredScale(ll)
	plStr := make([]string, len(pl))
	for i, v := range pl {
		plStr[i] = fmt.Sprintf("%d", v)
	}
	allStr := make([]string, NBase)
	for j := 0; j < NBase; j++ {
		allStr[j] = fmt.Sprintf("%d", plp.bc[j])
	}
	return fmt.Sprintf("%s:%d:%d:%d:%s:%s",
		genotypeString(ll, doubleGL), plp.ad, plp.dp, plp.oth,
		strings.Join(plStr, ","), strings.Join(allStr, ","))
}
