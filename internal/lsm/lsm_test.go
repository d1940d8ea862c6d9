package lsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFit_exactLinearFitThroughTwoRegressors(t *testing.T) {
	assert := assert.New(t)

	// y = 2 + 3*x, sampled exactly (no noise): the fit should recover [2, 3].
	x := [][]float64{
		{1, 0},
		{1, 1},
		{1, 2},
		{1, 3},
	}
	y := []float64{2, 5, 8, 11}

	coeffs, err := Fit(x, y)
	if !assert.NoError(err) {
		return
	}
	if assert.Len(coeffs, 2) {
		assert.InDelta(2.0, coeffs[0], 1e-8)
		assert.InDelta(3.0, coeffs[1], 1e-8)
	}
}

func TestFit_singularDesignFallsBackToPseudoInverse(t *testing.T) {
	assert := assert.New(t)

	// Second column is a multiple of the first: the Gram matrix is singular.
	x := [][]float64{
		{1, 2},
		{1, 2},
		{1, 2},
		{1, 2},
	}
	y := []float64{4, 4, 4, 4}

	coeffs, err := Fit(x, y)
	if !assert.NoError(err) {
		return
	}
	assert.Len(coeffs, 2)
	// Whatever the pseudo-inverse distributes between the two collinear
	// columns, predictions must reproduce y exactly.
	for _, row := range x {
		pred := coeffs[0]*row[0] + coeffs[1]*row[1]
		assert.InDelta(4.0, pred, 1e-6)
	}
}

func TestFit_rejectsRaggedOrMismatchedInput(t *testing.T) {
	assert := assert.New(t)

	_, err := Fit([][]float64{{1, 2}, {1}}, []float64{1, 2})
	assert.Error(err)

	_, err = Fit([][]float64{{1, 2}, {1, 3}}, []float64{1})
	assert.Error(err)

	_, err = Fit(nil, nil)
	assert.Error(err)
}
