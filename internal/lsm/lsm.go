// Package lsm fits ordinary least squares regressions by normal equations,
// falling back to a Moore-Penrose pseudo-inverse (via Jacobi eigendecomposition
// of the singular Gram matrix) when the design matrix is rank-deficient. It
// backs the conditional-expectation regression behind the Choice primitive:
// no repo in the retrieved pack imports a linear-algebra library (no gonum,
// no BLAS binding), so this is a from-scratch dense implementation on
// stdlib math, the one place in this module that departs from "wire a
// pack dependency" — see DESIGN.md.
package lsm

import "math"

// singularTolFactor scales the largest eigenvalue to decide which
// eigenvalues of a singular Gram matrix are numerically zero.
const singularTolFactor = 1e-10

// Fit solves the ordinary least squares problem min ||Xb - y||^2 for the
// coefficient vector b, where X is an m-by-n design matrix (m rows, one per
// observation, n columns, one per basis function) and y has length m. It
// forms the normal equations X^T X b = X^T y and solves them by Gaussian
// elimination with partial pivoting; if X^T X is singular or
// near-singular, it falls back to the Moore-Penrose pseudo-inverse computed
// via Jacobi eigendecomposition.
func Fit(x [][]float64, y []float64) ([]float64, error) {
	m := len(x)
	if m == 0 {
		return nil, errEmptyDesign
	}
	n := len(x[0])
	for _, row := range x {
		if len(row) != n {
			return nil, errRaggedDesign
		}
	}
	if len(y) != m {
		return nil, errDimMismatch
	}

	xtx := gramMatrix(x, n)
	xty := gramVector(x, y, n)

	if b, ok := solveLinear(xtx, xty); ok {
		return b, nil
	}
	return pseudoInverseSolve(xtx, xty)
}

func gramMatrix(x [][]float64, n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}
	for _, row := range x {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				out[i][j] += row[i] * row[j]
			}
		}
	}
	return out
}

func gramVector(x [][]float64, y []float64, n int) []float64 {
	out := make([]float64, n)
	for r, row := range x {
		for i := 0; i < n; i++ {
			out[i] += row[i] * y[r]
		}
	}
	return out
}

// solveLinear solves Ax = b by Gaussian elimination with partial pivoting.
// ok is false if a pivot column is numerically zero (A is singular).
func solveLinear(a [][]float64, b []float64) (x []float64, ok bool) {
	n := len(b)
	aug := make([][]float64, n)
	for i := range aug {
		aug[i] = make([]float64, n+1)
		copy(aug[i], a[i])
		aug[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		pivotRow := col
		maxAbs := math.Abs(aug[col][col])
		for r := col + 1; r < n; r++ {
			if abs := math.Abs(aug[r][col]); abs > maxAbs {
				maxAbs = abs
				pivotRow = r
			}
		}
		if maxAbs < 1e-12 {
			return nil, false
		}
		aug[col], aug[pivotRow] = aug[pivotRow], aug[col]

		for r := col + 1; r < n; r++ {
			factor := aug[r][col] / aug[col][col]
			for c := col; c <= n; c++ {
				aug[r][c] -= factor * aug[col][c]
			}
		}
	}

	x = make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := aug[row][n]
		for c := row + 1; c < n; c++ {
			sum -= aug[row][c] * x[c]
		}
		x[row] = sum / aug[row][row]
	}
	return x, true
}

// pseudoInverseSolve solves Ax = b for symmetric singular A via the
// Moore-Penrose pseudo-inverse: A = V diag(lambda) V^T, A^+ = V diag(lambda^+) V^T
// with lambda^+ = 1/lambda for |lambda| above singularTolFactor * max|lambda|
// and 0 otherwise.
func pseudoInverseSolve(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	eigenvalues, eigenvectors := jacobiEigen(a)

	maxAbs := 0.0
	for _, lambda := range eigenvalues {
		if abs := math.Abs(lambda); abs > maxAbs {
			maxAbs = abs
		}
	}
	if maxAbs == 0 {
		return nil, errAllZeroDesign
	}
	tol := singularTolFactor * maxAbs

	// y = V^T b
	vtb := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for k := 0; k < n; k++ {
			sum += eigenvectors[k][i] * b[k]
		}
		vtb[i] = sum
	}
	for i, lambda := range eigenvalues {
		if math.Abs(lambda) > tol {
			vtb[i] /= lambda
		} else {
			vtb[i] = 0
		}
	}
	// x = V y
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for k := 0; k < n; k++ {
			sum += eigenvectors[i][k] * vtb[k]
		}
		x[i] = sum
	}
	return x, nil
}

// jacobiEigen computes the eigenvalues and eigenvectors of symmetric matrix
// a via the classical cyclic Jacobi rotation method. eigenvectors[i][j] is
// the i-th component of the j-th eigenvector.
func jacobiEigen(a [][]float64) (eigenvalues []float64, eigenvectors [][]float64) {
	n := len(a)
	m := make([][]float64, n)
	for i := range m {
		m[i] = append([]float64(nil), a[i]...)
	}
	v := make([][]float64, n)
	for i := range v {
		v[i] = make([]float64, n)
		v[i][i] = 1
	}

	const maxSweeps = 100
	for sweep := 0; sweep < maxSweeps; sweep++ {
		off := offDiagonalNorm(m)
		if off < 1e-14 {
			break
		}
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				if math.Abs(m[p][q]) < 1e-300 {
					continue
				}
				theta := (m[q][q] - m[p][p]) / (2 * m[p][q])
				t := math.Copysign(1, theta) / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				if theta == 0 {
					t = 1
				}
				c := 1 / math.Sqrt(t*t+1)
				s := t * c

				mpp, mqq, mpq := m[p][p], m[q][q], m[p][q]
				m[p][p] = c*c*mpp - 2*s*c*mpq + s*s*mqq
				m[q][q] = s*s*mpp + 2*s*c*mpq + c*c*mqq
				m[p][q] = 0
				m[q][p] = 0
				for i := 0; i < n; i++ {
					if i != p && i != q {
						mip, miq := m[i][p], m[i][q]
						m[i][p] = c*mip - s*miq
						m[p][i] = m[i][p]
						m[i][q] = s*mip + c*miq
						m[q][i] = m[i][q]
					}
				}
				for i := 0; i < n; i++ {
					vip, viq := v[i][p], v[i][q]
					v[i][p] = c*vip - s*viq
					v[i][q] = s*vip + c*viq
				}
			}
		}
	}

	eigenvalues = make([]float64, n)
	for i := range eigenvalues {
		eigenvalues[i] = m[i][i]
	}
	return eigenvalues, v
}

func offDiagonalNorm(m [][]float64) float64 {
	sum := 0.0
	for i := range m {
		for j := range m[i] {
			if i != j {
				sum += m[i][j] * m[i][j]
			}
		}
	}
	return math.Sqrt(sum)
}
