package models

import (
	"encoding/json"
	"fmt"
)

// Shape identifies the record layout of a dataset.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeSimple        // [timestamp, value]
	ShapeOHLCV         // [timestamp, open, high, low, close, volume]
)

// Arity returns the wire record length for the shape.
func (s Shape) Arity() int {
	switch s {
	case ShapeSimple:
		return 2
	case ShapeOHLCV:
		return 6
	default:
		return 0
	}
}

func (s Shape) String() string {
	switch s {
	case ShapeSimple:
		return "simple"
	case ShapeOHLCV:
		return "ohlcv"
	default:
		return "unknown"
	}
}

// ParseShape maps a shape name back to its Shape.
func ParseShape(name string) (Shape, error) {
	switch name {
	case "simple":
		return ShapeSimple, nil
	case "ohlcv":
		return ShapeOHLCV, nil
	default:
		return ShapeUnknown, fmt.Errorf("unknown shape %q", name)
	}
}

// ShapeFromArity maps a record length to a shape.
func ShapeFromArity(n int) Shape {
	switch n {
	case 2:
		return ShapeSimple
	case 6:
		return ShapeOHLCV
	default:
		return ShapeUnknown
	}
}

// DayMS is the length of one calendar day in epoch milliseconds.
const DayMS int64 = 86_400_000

// TimePoint is a single observation on the daily grid. Nil fields mark a
// gap day; gaps are stored explicitly and never interpolated.
type TimePoint struct {
	Timestamp int64
	Value     *float64
	Open      *float64
	High      *float64
	Low       *float64
	Close     *float64
	Volume    *float64
}

// IsGap reports whether the point carries no values at all.
func (p TimePoint) IsGap(shape Shape) bool {
	if shape == ShapeOHLCV {
		return p.Open == nil && p.High == nil && p.Low == nil && p.Close == nil && p.Volume == nil
	}
	return p.Value == nil
}

// CloseValue resolves the price-like value of the point: Close for OHLCV
// records, Value otherwise. Returns ok=false on gap days.
func (p TimePoint) CloseValue(shape Shape) (float64, bool) {
	if shape == ShapeOHLCV {
		if p.Close == nil {
			return 0, false
		}
		return *p.Close, true
	}
	if p.Value == nil {
		return 0, false
	}
	return *p.Value, true
}

// Gap builds a null-valued point for the given day.
func Gap(ts int64) TimePoint {
	return TimePoint{Timestamp: ts}
}

// SimplePoint builds a simple-shaped point.
func SimplePoint(ts int64, v float64) TimePoint {
	return TimePoint{Timestamp: ts, Value: &v}
}

// OHLCVPoint builds an OHLCV-shaped point.
func OHLCVPoint(ts int64, o, h, l, c, v float64) TimePoint {
	return TimePoint{Timestamp: ts, Open: &o, High: &h, Low: &l, Close: &c, Volume: &v}
}

// Dataset is a named, strictly time-ordered daily series with explicit gaps.
type Dataset struct {
	Name   string
	Shape  Shape
	Points []TimePoint
}

// Len returns the number of points.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Points)
}

// First returns the earliest point, ok=false on an empty dataset.
func (d *Dataset) First() (TimePoint, bool) {
	if d.Len() == 0 {
		return TimePoint{}, false
	}
	return d.Points[0], true
}

// Last returns the latest point, ok=false on an empty dataset.
func (d *Dataset) Last() (TimePoint, bool) {
	if d.Len() == 0 {
		return TimePoint{}, false
	}
	return d.Points[len(d.Points)-1], true
}

// TailDays returns a copy-view of the points within the trailing number of
// calendar days, anchored to the last stored point.
func (d *Dataset) TailDays(days int) []TimePoint {
	if d.Len() == 0 || days <= 0 {
		return nil
	}
	cutoff := d.Points[len(d.Points)-1].Timestamp - int64(days)*DayMS
	for i, p := range d.Points {
		if p.Timestamp >= cutoff {
			return d.Points[i:]
		}
	}
	return nil
}

// datasetJSON is the persisted/wire form: points as positional records with
// JSON null for absent values, the layout upstream sources use.
type datasetJSON struct {
	Name   string      `json:"name"`
	Shape  string      `json:"shape"`
	Points []RawRecord `json:"points"`
}

// MarshalJSON renders points as positional [ts, ...] records.
func (d Dataset) MarshalJSON() ([]byte, error) {
	out := datasetJSON{
		Name:   d.Name,
		Shape:  d.Shape.String(),
		Points: make([]RawRecord, 0, len(d.Points)),
	}
	for _, p := range d.Points {
		out.Points = append(out.Points, recordFromPoint(p, d.Shape))
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the positional record form back into typed points.
func (d *Dataset) UnmarshalJSON(b []byte) error {
	var in datasetJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	var shape Shape
	switch in.Shape {
	case "simple":
		shape = ShapeSimple
	case "ohlcv":
		shape = ShapeOHLCV
	case "unknown", "":
		shape = ShapeUnknown
	default:
		return fmt.Errorf("dataset %q: unknown shape %q", in.Name, in.Shape)
	}
	points := make([]TimePoint, 0, len(in.Points))
	for i, rec := range in.Points {
		p, err := rec.Point(shape)
		if err != nil {
			return fmt.Errorf("dataset %q point %d: %w", in.Name, i, err)
		}
		points = append(points, p)
	}
	d.Name = in.Name
	d.Shape = shape
	d.Points = points
	return nil
}

func recordFromPoint(p TimePoint, shape Shape) RawRecord {
	ts := float64(p.Timestamp)
	if shape == ShapeOHLCV {
		return RawRecord{&ts, p.Open, p.High, p.Low, p.Close, p.Volume}
	}
	return RawRecord{&ts, p.Value}
}

// RawRecord is one positional record as delivered by a provider:
// [timestamp, value] or [timestamp, open, high, low, close, volume],
// with nulls decoded as nil.
type RawRecord []*float64

// Timestamp returns the record's leading timestamp, ok=false when absent.
func (r RawRecord) Timestamp() (int64, bool) {
	if len(r) == 0 || r[0] == nil {
		return 0, false
	}
	return int64(*r[0]), true
}

// Point converts the record into a TimePoint of the given shape.
func (r RawRecord) Point(shape Shape) (TimePoint, error) {
	ts, ok := r.Timestamp()
	if !ok {
		return TimePoint{}, fmt.Errorf("missing timestamp")
	}
	p := TimePoint{Timestamp: ts}
	switch shape {
	case ShapeSimple:
		if len(r) != 2 {
			return TimePoint{}, fmt.Errorf("want 2 fields, got %d", len(r))
		}
		p.Value = r[1]
	case ShapeOHLCV:
		if len(r) != 6 {
			return TimePoint{}, fmt.Errorf("want 6 fields, got %d", len(r))
		}
		p.Open, p.High, p.Low, p.Close, p.Volume = r[1], r[2], r[3], r[4], r[5]
	default:
		return TimePoint{}, fmt.Errorf("unsupported shape %v", shape)
	}
	return p, nil
}
