// Package priceproc provides a reference implementation of the price-process
// collaborator the semantic tree treats as external (dslast.PriceProcess):
// correlated geometric Brownian motion, calibrated from the
// market_calibration mapping described for evaluation kwargs (per-market
// last price and historical volatility, plus pairwise correlations).
// Nothing in the retrieved pack simulates stochastic processes, so this is
// grounded on the owning design's §6.3 contract alone rather than adapted
// from a teacher file; see DESIGN.md.
package priceproc

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// GBM simulates correlated lognormal price paths under the risk-neutral
// measure. AsOf is the valuation date every duration is measured from,
// fixed for the process's lifetime so that Simulate calls made under a
// present_time shifted forward by Wait/Fixing/On still measure time from the
// contract's original valuation date, not from the shifted one.
type GBM struct {
	AsOf   time.Time
	Rate   float64 // continuous risk-neutral rate, in percent (matches interest_rate)
	Source *rand.Rand
}

// NewGBM returns a GBM seeded from src (pass rand.New(rand.NewSource(seed))
// for reproducible runs, or nil to use the package-level default source).
func NewGBM(asOf time.Time, ratePercent float64, src *rand.Rand) *GBM {
	if src == nil {
		src = rand.New(rand.NewSource(1))
	}
	return &GBM{AsOf: asOf, Rate: ratePercent, Source: src}
}

// DurationYears returns the ACT/365 year fraction between t0 and t1.
func (g *GBM) DurationYears(t0, t1 time.Time) float64 {
	return t1.Sub(t0).Hours() / 24 / 365
}

// Simulate draws pathCount correlated lognormal paths for each of markets at
// each of dates, calibrated from calibration's "<name>-LAST-PRICE",
// "<name>-ACTUAL-HISTORICAL-VOLATILITY" (percent), and
// "<a>-<b>-CORRELATION" entries (0 for any unlisted pair).
func (g *GBM) Simulate(markets []string, dates []time.Time, calibration map[string]float64, pathCount int) (map[string]map[time.Time][]float64, error) {
	n := len(markets)
	if n == 0 || pathCount <= 0 {
		return map[string]map[time.Time][]float64{}, nil
	}

	s0 := make([]float64, n)
	vol := make([]float64, n)
	for i, m := range markets {
		s, ok := calibration[m+"-LAST-PRICE"]
		if !ok {
			return nil, fmt.Errorf("priceproc: missing calibration %q", m+"-LAST-PRICE")
		}
		v, ok := calibration[m+"-ACTUAL-HISTORICAL-VOLATILITY"]
		if !ok {
			return nil, fmt.Errorf("priceproc: missing calibration %q", m+"-ACTUAL-HISTORICAL-VOLATILITY")
		}
		s0[i] = s
		vol[i] = v / 100
	}

	corr := identity(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			rho, ok := calibration[markets[i]+"-"+markets[j]+"-CORRELATION"]
			if !ok {
				rho, ok = calibration[markets[j]+"-"+markets[i]+"-CORRELATION"]
			}
			if ok {
				corr[i][j] = rho
				corr[j][i] = rho
			}
		}
	}
	chol := cholesky(corr)

	sortedDates := append([]time.Time(nil), dates...)
	sort.Slice(sortedDates, func(i, j int) bool { return sortedDates[i].Before(sortedDates[j]) })

	out := make(map[string]map[time.Time][]float64, n)
	for _, m := range markets {
		out[m] = make(map[time.Time][]float64, len(dates))
	}

	for _, d := range dates {
		t := g.DurationYears(g.AsOf, d)
		drift := make([]float64, n)
		for i := range drift {
			drift[i] = (g.Rate/100 - 0.5*vol[i]*vol[i]) * t
		}
		sigmaSqrtT := make([]float64, n)
		for i := range sigmaSqrtT {
			sigmaSqrtT[i] = vol[i] * math.Sqrt(math.Max(t, 0))
		}

		paths := make([][]float64, n)
		for i := range paths {
			paths[i] = make([]float64, pathCount)
		}
		z := make([]float64, n)
		for p := 0; p < pathCount; p++ {
			for i := 0; i < n; i++ {
				z[i] = g.Source.NormFloat64()
			}
			correlated := matVec(chol, z)
			for i := 0; i < n; i++ {
				paths[i][p] = s0[i] * math.Exp(drift[i]+sigmaSqrtT[i]*correlated[i])
			}
		}
		for i, m := range markets {
			out[m][d] = paths[i]
		}
	}
	return out, nil
}

func identity(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	return m
}

// cholesky returns the lower-triangular Cholesky factor of symmetric
// positive semi-definite a, clamping negative diagonal residues to zero so a
// mildly inconsistent correlation matrix still yields a usable (if
// approximate) factor rather than a NaN cascade.
func cholesky(a [][]float64) [][]float64 {
	n := len(a)
	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := a[i][j]
			for k := 0; k < j; k++ {
				sum -= l[i][k] * l[j][k]
			}
			if i == j {
				l[i][j] = math.Sqrt(math.Max(sum, 0))
			} else if l[j][j] != 0 {
				l[i][j] = sum / l[j][j]
			}
		}
	}
	return l
}

func matVec(m [][]float64, v []float64) []float64 {
	n := len(v)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for j := 0; j <= i; j++ {
			sum += m[i][j] * v[j]
		}
		out[i] = sum
	}
	return out
}
