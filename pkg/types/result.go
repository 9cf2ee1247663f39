package types

import "time"

// Kind tells which variant a Result holds.
type Kind int

const (
	// KindInvalid means the result has both or neither of Statistics and Value.
	KindInvalid Kind = iota
	KindValue
	KindStatistics
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindStatistics:
		return "statistics"
	default:
		return "invalid"
	}
}

// Statistics is a pre-aggregated set of values published as one sample.
type Statistics struct {
	Max   float64 `json:"max"`
	Min   float64 `json:"min"`
	Count float64 `json:"count"`
	Sum   float64 `json:"sum"`
}

// Result is what an aggregation function returns. Exactly one of Statistics or
// Value must be set; presence is the pointer being non-nil, so a zero Value is
// still a value. Use NewValue or NewStatistics to build a well-formed result.
type Result struct {
	Statistics *Statistics `json:"statistics,omitempty"`
	Value      *float64    `json:"value,omitempty"`
	Unit       Unit        `json:"unit"`
}

// NewValue returns a single-value result.
func NewValue(v float64, unit Unit) Result {
	return Result{Value: &v, Unit: unit}
}

// NewStatistics returns a statistic-set result.
func NewStatistics(s Statistics, unit Unit) Result {
	return Result{Statistics: &s, Unit: unit}
}

// Kind reports which variant r holds.
func (r Result) Kind() Kind {
	switch {
	case r.Statistics != nil && r.Value == nil:
		return KindStatistics
	case r.Value != nil && r.Statistics == nil:
		return KindValue
	default:
		return KindInvalid
	}
}

// PublishRequest is the backend write payload for one composite sample.
// Exactly one of Value or StatisticValues is set.
type PublishRequest struct {
	Namespace       string
	MetricName      string
	Dimensions      []Dimension
	Timestamp       time.Time
	Unit            Unit
	Value           *float64
	StatisticValues *StatisticSet
}

// StatisticSet is the backend's statistic-set shape.
type StatisticSet struct {
	Maximum     float64
	Minimum     float64
	SampleCount float64
	Sum         float64
}

// PublishResult is the backend's answer to a successful write.
type PublishResult struct {
	// RequestID is the backend request identifier, empty when the backend
	// does not issue one.
	RequestID string `json:"request_id,omitempty"`
}
