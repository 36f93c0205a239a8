package models

// RegimeLabel classifies one day's volatility state.
type RegimeLabel string

const (
	RegimeLow  RegimeLabel = "Low"
	RegimeHigh RegimeLabel = "High"
)

// RegimeMethod records which classifier produced the labels.
type RegimeMethod string

const (
	// RegimeMethodMarkov marks labels from the two-state switching model.
	RegimeMethodMarkov RegimeMethod = "markov"
	// RegimeMethodPercentile marks labels from the median-threshold fallback.
	RegimeMethodPercentile RegimeMethod = "percentile"
)

// RegimePoint labels one day together with the volatility input and, for
// the Markov path, the smoothed probability of the high state.
type RegimePoint struct {
	Timestamp  int64       `json:"timestamp"`
	Volatility float64     `json:"volatility"`
	Label      RegimeLabel `json:"label"`
	// ProbHigh is the smoothed high-variance state probability; zero and
	// meaningless under the percentile method.
	ProbHigh float64 `json:"prob_high"`
}

// RegimeResult is a full classification run over one asset window.
type RegimeResult struct {
	Asset  string        `json:"asset"`
	Days   int           `json:"days"`
	Method RegimeMethod  `json:"method"`
	Points []RegimePoint `json:"points"`
	// Threshold is set for the percentile method only.
	Threshold float64 `json:"threshold,omitempty"`
}

// Current returns the most recent labeled point, ok=false when empty.
func (r *RegimeResult) Current() (RegimePoint, bool) {
	if r == nil || len(r.Points) == 0 {
		return RegimePoint{}, false
	}
	return r.Points[len(r.Points)-1], true
}
