package regime

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// MinObservations is the smallest volatility sample a switching model fit
// accepts.
const MinObservations = 50

// ErrTooFewObservations signals the sample is under the fit floor.
var ErrTooFewObservations = errors.New("regime: too few observations")

// ErrDegenerateFit signals the optimizer walked into a numerically unusable
// state (zero variance, vanished regime, non-finite likelihood).
var ErrDegenerateFit = errors.New("regime: degenerate fit")

// MarkovConfig tunes the EM optimization.
type MarkovConfig struct {
	MaxIter   int
	Tolerance float64
}

// StateParams holds one regime's AR(1) parameters.
type StateParams struct {
	Intercept float64
	AR        float64
	Variance  float64
}

// MarkovFit is a converged two-state switching AR(1) model. State 1 is
// always the higher-variance regime.
type MarkovFit struct {
	States     [2]StateParams
	Transition [2][2]float64
	// SmoothedHigh is the smoothed probability of the high-variance state
	// for each effective observation. The first input value only seeds the
	// AR lag, so len(SmoothedHigh) == len(input)-1.
	SmoothedHigh []float64
	LogLik       float64
	Iterations   int
}

// FitMarkov fits a two-state switching AR(1) model to a volatility series
// by EM over the Hamilton filter and Kim smoother. Any numerical breakdown
// returns an error rather than a half-usable model; callers fall back to
// the percentile classifier.
func FitMarkov(vol []float64, cfg MarkovConfig) (*MarkovFit, error) {
	if len(vol) < MinObservations {
		return nil, fmt.Errorf("%w: %d < %d", ErrTooFewObservations, len(vol), MinObservations)
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = 100
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 1e-6
	}
	for _, v := range vol {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite input", ErrDegenerateFit)
		}
	}

	// Effective observations: y regressed on its own lag.
	T := len(vol) - 1
	x := vol[:T]
	y := vol[1:]

	m := initModel(vol)

	prevLL := math.Inf(-1)
	var smoothed [][2]float64
	iter := 0
	for ; iter < cfg.MaxIter; iter++ {
		filt, pred, ll, err := m.hamiltonFilter(x, y)
		if err != nil {
			return nil, err
		}
		var xi [][2][2]float64
		smoothed, xi = m.kimSmoother(filt, pred)

		if err := m.maximize(x, y, smoothed, xi); err != nil {
			return nil, err
		}

		if math.Abs(ll-prevLL) < cfg.Tolerance {
			prevLL = ll
			iter++
			break
		}
		prevLL = ll
	}

	if math.IsNaN(prevLL) || math.IsInf(prevLL, 1) {
		return nil, fmt.Errorf("%w: non-finite likelihood", ErrDegenerateFit)
	}

	fit := &MarkovFit{
		States:     m.states,
		Transition: m.trans,
		LogLik:     prevLL,
		Iterations: iter,
	}
	fit.SmoothedHigh = make([]float64, len(smoothed))
	for t := range smoothed {
		fit.SmoothedHigh[t] = smoothed[t][1]
	}
	fit.relabel()
	return fit, nil
}

// relabel orders the states so index 1 carries the higher variance,
// keeping the High label stable across fits regardless of how EM
// happened to assign states.
func (f *MarkovFit) relabel() {
	if f.States[1].Variance >= f.States[0].Variance {
		return
	}
	f.States[0], f.States[1] = f.States[1], f.States[0]
	f.Transition = [2][2]float64{
		{f.Transition[1][1], f.Transition[1][0]},
		{f.Transition[0][1], f.Transition[0][0]},
	}
	for t := range f.SmoothedHigh {
		f.SmoothedHigh[t] = 1 - f.SmoothedHigh[t]
	}
}

type markovModel struct {
	states [2]StateParams
	trans  [2][2]float64
	pi     [2]float64
}

// initModel seeds EM from a median split: low values initialize state 0,
// high values state 1.
func initModel(vol []float64) *markovModel {
	sorted := append([]float64(nil), vol...)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.LinInterp, sorted, nil)

	var lo, hi []float64
	for _, v := range vol {
		if v > median {
			hi = append(hi, v)
		} else {
			lo = append(lo, v)
		}
	}
	overall := stat.PopVariance(vol, nil)
	if overall <= 0 {
		overall = 1e-6
	}

	m := &markovModel{
		trans: [2][2]float64{{0.9, 0.1}, {0.1, 0.9}},
		pi:    [2]float64{0.5, 0.5},
	}
	m.states[0] = seedState(lo, overall)
	m.states[1] = seedState(hi, overall)
	return m
}

func seedState(vals []float64, fallbackVar float64) StateParams {
	p := StateParams{Variance: fallbackVar}
	if len(vals) > 0 {
		p.Intercept = stat.Mean(vals, nil)
	}
	if len(vals) > 1 {
		if v := stat.PopVariance(vals, nil); v > 0 {
			p.Variance = v
		}
	}
	return p
}

func normPDF(x, mean, variance float64) float64 {
	d := x - mean
	return math.Exp(-d*d/(2*variance)) / math.Sqrt(2*math.Pi*variance)
}

// hamiltonFilter runs the scaled forward pass, returning filtered and
// one-step-ahead predicted state probabilities plus the log-likelihood.
func (m *markovModel) hamiltonFilter(x, y []float64) (filt, pred [][2]float64, ll float64, err error) {
	T := len(y)
	filt = make([][2]float64, T)
	pred = make([][2]float64, T)

	prev := m.pi
	for t := 0; t < T; t++ {
		for j := 0; j < 2; j++ {
			if t == 0 {
				pred[t][j] = m.pi[j]
			} else {
				pred[t][j] = prev[0]*m.trans[0][j] + prev[1]*m.trans[1][j]
			}
		}
		var scale float64
		var joint [2]float64
		for j := 0; j < 2; j++ {
			if m.states[j].Variance <= 0 {
				return nil, nil, 0, fmt.Errorf("%w: non-positive variance", ErrDegenerateFit)
			}
			mean := m.states[j].Intercept + m.states[j].AR*x[t]
			joint[j] = pred[t][j] * normPDF(y[t], mean, m.states[j].Variance)
			scale += joint[j]
		}
		if scale <= 0 || math.IsNaN(scale) {
			return nil, nil, 0, fmt.Errorf("%w: vanishing likelihood at t=%d", ErrDegenerateFit, t)
		}
		for j := 0; j < 2; j++ {
			filt[t][j] = joint[j] / scale
		}
		ll += math.Log(scale)
		prev = filt[t]
	}
	return filt, pred, ll, nil
}

// kimSmoother runs the backward pass, producing smoothed state
// probabilities and pairwise transition responsibilities.
func (m *markovModel) kimSmoother(filt, pred [][2]float64) (smoothed [][2]float64, xi [][2][2]float64) {
	T := len(filt)
	smoothed = make([][2]float64, T)
	xi = make([][2][2]float64, T-1)

	smoothed[T-1] = filt[T-1]
	for t := T - 2; t >= 0; t-- {
		for i := 0; i < 2; i++ {
			var total float64
			for j := 0; j < 2; j++ {
				if pred[t+1][j] == 0 {
					continue
				}
				term := filt[t][i] * m.trans[i][j] * smoothed[t+1][j] / pred[t+1][j]
				xi[t][i][j] = term
				total += term
			}
			smoothed[t][i] = total
		}
	}
	return smoothed, xi
}

// maximize re-estimates state parameters and the transition matrix from the
// smoothed responsibilities.
func (m *markovModel) maximize(x, y []float64, smoothed [][2]float64, xi [][2][2]float64) error {
	T := len(y)
	w := make([]float64, T)

	for s := 0; s < 2; s++ {
		var wsum float64
		for t := 0; t < T; t++ {
			w[t] = smoothed[t][s]
			wsum += w[t]
		}
		if wsum < 1e-10 {
			return fmt.Errorf("%w: regime %d vanished", ErrDegenerateFit, s)
		}

		c, phi := stat.LinearRegression(x, y, w, false)
		if math.IsNaN(c) || math.IsNaN(phi) {
			return fmt.Errorf("%w: regression failed for regime %d", ErrDegenerateFit, s)
		}

		var rss float64
		for t := 0; t < T; t++ {
			r := y[t] - (c + phi*x[t])
			rss += w[t] * r * r
		}
		variance := rss / wsum
		if variance <= 0 || math.IsNaN(variance) {
			return fmt.Errorf("%w: zero residual variance for regime %d", ErrDegenerateFit, s)
		}
		m.states[s] = StateParams{Intercept: c, AR: phi, Variance: variance}
	}

	for i := 0; i < 2; i++ {
		var denom float64
		var num [2]float64
		for t := 0; t < T-1; t++ {
			denom += smoothed[t][i]
			for j := 0; j < 2; j++ {
				num[j] += xi[t][i][j]
			}
		}
		if denom < 1e-10 {
			return fmt.Errorf("%w: regime %d vanished in transitions", ErrDegenerateFit, i)
		}
		rowSum := num[0] + num[1]
		if rowSum <= 0 {
			return fmt.Errorf("%w: empty transition row %d", ErrDegenerateFit, i)
		}
		for j := 0; j < 2; j++ {
			m.trans[i][j] = num[j] / rowSum
		}
	}

	m.pi = smoothed[0]
	return nil
}
