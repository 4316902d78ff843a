/*
 *  session.go
 *  cellsnp
 *
 *  Created by Xianjie Huang on 04/21/20
 *  Copyright © 2020 Xianjie Huang. All rights reserved.
 */

package cellsnp

import (
	"fmt"
	"os"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

// Session wraps one indexed BAM file for random access. Each worker owns
// its own sessions, so no locking is needed.
type Session struct {
	path string
	fh   *os.File
	rd   *bam.Reader
	idx  *bam.Index
	refs map[string]*sam.Reference
}

// indexPath finds the .bai companion of a BAM file
func indexPath(bamPath string) (string, error) {
	candidates := []string{bamPath + ".bai", RemoveExt(bamPath) + ".bai"}
	for _, fn := range candidates {
		if _, err := os.Stat(fn); err == nil {
			return fn, nil
		}
	}
	return "", fmt.Errorf("no index found for `%s`, expected `%s`", bamPath, candidates[0])
}

// OpenSession opens a BAM file and its .bai index
func OpenSession(path string) (*Session, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open bamfile `%s`: %v", path, err)
	}
	rd, err := bam.NewReader(fh, 1)
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("cannot read bamfile `%s`: %v", path, err)
	}
	idxFn, err := indexPath(path)
	if err != nil {
		rd.Close()
		fh.Close()
		return nil, err
	}
	ih, err := os.Open(idxFn)
	if err != nil {
		rd.Close()
		fh.Close()
		return nil, fmt.Errorf("cannot open index `%s`: %v", idxFn, err)
	}
	idx, err := bam.ReadIndex(ih)
	ih.Close()
	if err != nil {
		rd.Close()
		fh.Close()
		return nil, fmt.Errorf("cannot read index `%s`: %v", idxFn, err)
	}

	refs := make(map[string]*sam.Reference)
	for _, ref := range rd.Header().Refs() {
		refs[ref.Name()] = ref
	}
	return &Session{path: path, fh: fh, rd: rd, idx: idx, refs: refs}, nil
}

// Ref resolves a chromosome name against the BAM header, tolerating a
// missing or extra "chr" prefix
func (s *Session) Ref(chrom string) *sam.Reference {
	if ref, ok := s.refs[chrom]; ok {
		return ref
	}
	if strings.HasPrefix(chrom, "chr") {
		if ref, ok := s.refs[strings.TrimPrefix(chrom, "chr")]; ok {
			return ref
		}
	} else if ref, ok := s.refs["chr"+chrom]; ok {
		return ref
	}
	return nil
}

// Fetch returns an iterator over the reads overlapping [beg, end) on
// chrom. A nil iterator with nil error means the chromosome is not in
// the BAM header.
func (s *Session) Fetch(chrom string, beg, end int) (*bam.Iterator, error) {
	ref := s.Ref(chrom)
	if ref == nil {
		return nil, nil
	}
	chunks, err := s.idx.Chunks(ref, beg, end)
	if err != nil {
		// out of indexed range, no reads there
		return bam.NewIterator(s.rd, nil)
	}
	return bam.NewIterator(s.rd, chunks)
}

// Close releases the BAM handle
func (s *Session) Close() error {
	err := s.rd.Close()
	s.fh.Close()
	return err
}
