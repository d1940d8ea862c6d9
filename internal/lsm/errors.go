package lsm

import "errors"

var (
	errEmptyDesign   = errors.New("lsm: design matrix has no rows")
	errRaggedDesign  = errors.New("lsm: design matrix rows have inconsistent widths")
	errDimMismatch   = errors.New("lsm: observation vector length does not match design matrix row count")
	errAllZeroDesign = errors.New("lsm: design matrix is entirely rank-deficient (all eigenvalues zero)")
)
