package curve

import (
	"errors"
	"math"
)

// Fit errors. Callers normally just drop the model from the result set.
var (
	ErrInsufficientData = errors.New("fewer data points than model parameters")
	ErrNoConvergence    = errors.New("fit did not converge")
	ErrSingular         = errors.New("singular normal equations")
)

const (
	maxIterations = 200
	jacobianStep  = 1e-6
	sseTolerance  = 1e-10
)

// Fit estimates a model's parameters by damped least squares
// (Levenberg-Marquardt with a numeric Jacobian). durs and vals must be the
// same length and durs strictly positive.
func Fit(m Model, durs, vals []float64) ([]float64, error) {
	n := len(durs)
	k := len(m.Params)
	if n < k {
		return nil, ErrInsufficientData
	}

	p := m.Guess(durs, vals)
	cost := sse(m, p, durs, vals)
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return nil, ErrNoConvergence
	}

	lambda := 1e-3
	for iter := 0; iter < maxIterations; iter++ {
		jac, res := jacobian(m, p, durs, vals)

		// Normal equations J'J + lambda*diag(J'J), J'r on the right.
		jtj := make([][]float64, k)
		jtr := make([]float64, k)
		for i := 0; i < k; i++ {
			jtj[i] = make([]float64, k)
			for j := 0; j < k; j++ {
				var s float64
				for r := 0; r < n; r++ {
					s += jac[r][i] * jac[r][j]
				}
				jtj[i][j] = s
			}
			var s float64
			for r := 0; r < n; r++ {
				s += jac[r][i] * res[r]
			}
			jtr[i] = -s
		}

		accepted := false
		for attempt := 0; attempt < 12; attempt++ {
			damped := make([][]float64, k)
			for i := range jtj {
				damped[i] = make([]float64, k)
				copy(damped[i], jtj[i])
				damped[i][i] += lambda * math.Max(jtj[i][i], 1e-12)
			}
			rhs := make([]float64, k)
			copy(rhs, jtr)

			step, ok := solve(damped, rhs)
			if !ok {
				lambda *= 10
				continue
			}

			trial := make([]float64, k)
			for i := range p {
				trial[i] = p[i] + step[i]
			}
			trialCost := sse(m, trial, durs, vals)
			if !math.IsNaN(trialCost) && trialCost < cost {
				improvement := cost - trialCost
				p = trial
				cost = trialCost
				lambda = math.Max(lambda*0.3, 1e-12)
				accepted = true
				if improvement <= sseTolerance*(cost+sseTolerance) {
					return finite(p)
				}
				break
			}
			lambda *= 10
		}
		if !accepted {
			// Damping exhausted: we are at a local minimum of this model.
			return finite(p)
		}
	}
	return nil, ErrNoConvergence
}

func finite(p []float64) ([]float64, error) {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrNoConvergence
		}
	}
	return p, nil
}

// sse is the sum of squared residuals.
func sse(m Model, p, durs, vals []float64) float64 {
	var total float64
	for i, t := range durs {
		r := m.Eval(p, t) - vals[i]
		total += r * r
	}
	return total
}

// jacobian computes residuals and their forward-difference derivatives with
// respect to each parameter.
func jacobian(m Model, p, durs, vals []float64) (jac [][]float64, res []float64) {
	n := len(durs)
	k := len(p)
	res = make([]float64, n)
	for i, t := range durs {
		res[i] = m.Eval(p, t) - vals[i]
	}

	jac = make([][]float64, n)
	for i := range jac {
		jac[i] = make([]float64, k)
	}
	bumped := make([]float64, k)
	for j := 0; j < k; j++ {
		copy(bumped, p)
		h := jacobianStep * math.Max(math.Abs(p[j]), 1)
		bumped[j] += h
		for i, t := range durs {
			jac[i][j] = (m.Eval(bumped, t) - vals[i] - res[i]) / h
		}
	}
	return jac, res
}

// solve runs Gaussian elimination with partial pivoting on Ax = b,
// reporting failure on a singular system. A and b are clobbered.
func solve(a [][]float64, b []float64) ([]float64, bool) {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-14 {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for j := col; j < n; j++ {
				a[row][j] -= factor * a[col][j]
			}
			b[row] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		x[i] = b[i]
		for j := i + 1; j < n; j++ {
			x[i] -= a[i][j] * x[j]
		}
		x[i] /= a[i][i]
	}
	return x, true
}
