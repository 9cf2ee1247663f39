package types

import "time"

// Sample is a backend's answer for one MetricDescriptor over one TimeWindow.
// A sample with no datapoints is valid: it means the series had no data in
// the window.
type Sample struct {
	// Metric is the descriptor this sample was read for.
	Metric MetricDescriptor

	// Label is the backend's human-readable series label, if any.
	Label string

	// Datapoints are ordered oldest first.
	Datapoints []Datapoint
}

// Datapoint is one aggregated point of a series. Only the statistics that were
// requested are set; the rest stay nil.
type Datapoint struct {
	Timestamp   time.Time
	Unit        Unit
	SampleCount *float64
	Average     *float64
	Sum         *float64
	Minimum     *float64
	Maximum     *float64
}

// Get returns the value of stat and whether the backend supplied it.
func (d Datapoint) Get(stat Statistic) (float64, bool) {
	var p *float64
	switch stat {
	case SampleCount:
		p = d.SampleCount
	case Average:
		p = d.Average
	case Sum:
		p = d.Sum
	case Minimum:
		p = d.Minimum
	case Maximum:
		p = d.Maximum
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Set stores v as the value of stat.
func (d *Datapoint) Set(stat Statistic, v float64) {
	switch stat {
	case SampleCount:
		d.SampleCount = &v
	case Average:
		d.Average = &v
	case Sum:
		d.Sum = &v
	case Minimum:
		d.Minimum = &v
	case Maximum:
		d.Maximum = &v
	}
}

// Empty reports whether the sample carries no datapoints.
func (s Sample) Empty() bool {
	return len(s.Datapoints) == 0
}

// Values returns the requested statistic of every datapoint that has it,
// oldest first.
func (s Sample) Values() []float64 {
	out := make([]float64, 0, len(s.Datapoints))
	for _, dp := range s.Datapoints {
		if v, ok := dp.Get(s.Metric.Statistic); ok {
			out = append(out, v)
		}
	}
	return out
}

// Latest returns the requested statistic of the newest datapoint.
func (s Sample) Latest() (float64, bool) {
	for i := len(s.Datapoints) - 1; i >= 0; i-- {
		if v, ok := s.Datapoints[i].Get(s.Metric.Statistic); ok {
			return v, true
		}
	}
	return 0, false
}
