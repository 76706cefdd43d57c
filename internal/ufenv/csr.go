package ufenv

import (
	"github.com/sparseopt/iegen/internal/conj"
	"github.com/sparseopt/iegen/internal/setrel"
	"github.com/sparseopt/iegen/internal/term"
	"github.com/sparseopt/iegen/internal/tupledecl"
)

// boundedRange builds the arity-1 set {[slotName] : lo <= slotName <= hi}
// (or < hi when inclusive is false), the shape every sparse-format index
// array's domain or range takes.
func boundedRange(slotName string, lo, hi int, inclusiveHi bool) *setrel.Set {
	decl := tupledecl.NewNamed(slotName)
	c := conj.New(decl, 0)
	lower := term.NewInequality(term.NewTupleVariable(0))
	lower.Add(term.NewConstant(-lo))
	_ = c.AddInequality(lower)

	upper := term.NewInequality(func() *term.Term { x := term.NewTupleVariable(0); x.Coefficient = -1; return x }())
	upper.Add(term.NewConstant(hi))
	if !inclusiveHi {
		upper.Add(term.NewConstant(-1))
	}
	_ = c.AddInequality(upper)

	s, err := setrel.New(1, c)
	if err != nil {
		panic(err)
	}
	return s
}

// DeclareCSRRowptr registers the CSR row-pointer array as a UF: rowptr
// maps a row index in [0, nrows] (the sentinel nrows+1-th entry included)
// to an offset into the column-index/value arrays, in [0, nnz]. It is
// nondecreasing but not bijective (distinct rows may share an offset when
// a row is empty).
//
// Grounded in the CSR layout used throughout
// original_source/tutorial/sparse_format_example.cc and
// original_source/tutorial/COOtoCSR.cc.
func DeclareCSRRowptr(e *Environment, name string, nrows, nnz int) error {
	domain := boundedRange("i", 0, nrows, true)
	rng := boundedRange("v", 0, nnz, true)
	return e.Append(name, domain, rng, false, MonotonicityNondecreasing)
}

// DeclareCSRCol registers the CSR column-index array as a UF: col maps a
// position in [0, nnz) into a column index in [0, ncols). It carries no
// monotonicity guarantee (columns within a row need not be sorted) and is
// not bijective.
func DeclareCSRCol(e *Environment, name string, nnz, ncols int) error {
	domain := boundedRange("k", 0, nnz, false)
	rng := boundedRange("j", 0, ncols, false)
	return e.Append(name, domain, rng, false, MonotonicityNone)
}

// DeclareCSRIdx registers a generic CSR/BCSR value-array index map idx:
// position in [0, nnz) -> value-storage slot in [0, nnzValues). Block
// formats (BCSR) scale nnzValues by the block size before calling this;
// see original_source/tutorial/sparse_format_example.cc for the block
// layout this mirrors.
func DeclareCSRIdx(e *Environment, name string, nnz, nnzValues int) error {
	domain := boundedRange("k", 0, nnz, false)
	rng := boundedRange("m", 0, nnzValues, false)
	return e.Append(name, domain, rng, false, MonotonicityNone)
}
