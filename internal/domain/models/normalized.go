package models

import (
	"encoding/json"
	"fmt"
)

// NormalizedPoint is one emitted score on the daily grid. It marshals as a
// positional [timestamp, value] pair.
type NormalizedPoint struct {
	Timestamp int64
	Value     float64
}

func (p NormalizedPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{float64(p.Timestamp), p.Value})
}

func (p *NormalizedPoint) UnmarshalJSON(b []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	p.Timestamp = int64(pair[0])
	p.Value = pair[1]
	return nil
}

// NormalizedSeries is a named score series, e.g. one normalizer output or
// one composite input after alignment.
type NormalizedSeries struct {
	Name   string            `json:"name"`
	Points []NormalizedPoint `json:"points"`
}

// Last returns the final point, ok=false when empty.
func (s NormalizedSeries) Last() (NormalizedPoint, bool) {
	if len(s.Points) == 0 {
		return NormalizedPoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// CompositeInput names one series entering a composite together with its
// combination parameters.
type CompositeInput struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	// Invert negates the series inside the composite average only; the
	// per-series breakdown keeps the original sign.
	Invert bool `json:"invert"`
}

// CompositeSpec describes a weighted combination of normalized series.
type CompositeSpec struct {
	Inputs []CompositeInput `json:"inputs"`
	// EqualWeights ignores per-input weights and averages uniformly.
	EqualWeights bool `json:"equal_weights"`
}

// Validate rejects specs no combination can satisfy.
func (s CompositeSpec) Validate() error {
	if len(s.Inputs) == 0 {
		return fmt.Errorf("composite: no inputs")
	}
	if s.EqualWeights {
		return nil
	}
	total := 0.0
	for _, in := range s.Inputs {
		if in.Weight < 0 {
			return fmt.Errorf("composite: negative weight for %q", in.Name)
		}
		total += in.Weight
	}
	if total == 0 {
		return fmt.Errorf("composite: weights sum to zero")
	}
	return nil
}

// CompositeResult carries the combined series plus the un-inverted
// per-input breakdown on the shared timestamp grid.
type CompositeResult struct {
	Composite NormalizedSeries   `json:"composite"`
	Breakdown []NormalizedSeries `json:"breakdown"`
}
