package types

import (
	"fmt"
	"time"
)

// Statistic selects which aggregation of a time series the backend returns.
type Statistic string

// Supported statistics.
const (
	SampleCount Statistic = "SampleCount"
	Average     Statistic = "Average"
	Sum         Statistic = "Sum"
	Minimum     Statistic = "Minimum"
	Maximum     Statistic = "Maximum"
)

// AllStatistics lists every supported statistic in a stable order.
var AllStatistics = []Statistic{SampleCount, Average, Sum, Minimum, Maximum}

// Valid reports whether s is one of the supported statistics.
func (s Statistic) Valid() bool {
	switch s {
	case SampleCount, Average, Sum, Minimum, Maximum:
		return true
	}
	return false
}

// Unit is a backend measurement unit.
type Unit string

// Backend unit set.
const (
	UnitSeconds            Unit = "Seconds"
	UnitMicroseconds       Unit = "Microseconds"
	UnitMilliseconds       Unit = "Milliseconds"
	UnitBytes              Unit = "Bytes"
	UnitKilobytes          Unit = "Kilobytes"
	UnitMegabytes          Unit = "Megabytes"
	UnitGigabytes          Unit = "Gigabytes"
	UnitTerabytes          Unit = "Terabytes"
	UnitBits               Unit = "Bits"
	UnitKilobits           Unit = "Kilobits"
	UnitMegabits           Unit = "Megabits"
	UnitGigabits           Unit = "Gigabits"
	UnitTerabits           Unit = "Terabits"
	UnitPercent            Unit = "Percent"
	UnitCount              Unit = "Count"
	UnitBytesPerSecond     Unit = "Bytes/Second"
	UnitKilobytesPerSecond Unit = "Kilobytes/Second"
	UnitMegabytesPerSecond Unit = "Megabytes/Second"
	UnitGigabytesPerSecond Unit = "Gigabytes/Second"
	UnitTerabytesPerSecond Unit = "Terabytes/Second"
	UnitBitsPerSecond      Unit = "Bits/Second"
	UnitKilobitsPerSecond  Unit = "Kilobits/Second"
	UnitMegabitsPerSecond  Unit = "Megabits/Second"
	UnitGigabitsPerSecond  Unit = "Gigabits/Second"
	UnitTerabitsPerSecond  Unit = "Terabits/Second"
	UnitCountPerSecond     Unit = "Count/Second"
	UnitNone               Unit = "None"
)

var units = map[Unit]struct{}{
	UnitSeconds: {}, UnitMicroseconds: {}, UnitMilliseconds: {},
	UnitBytes: {}, UnitKilobytes: {}, UnitMegabytes: {}, UnitGigabytes: {}, UnitTerabytes: {},
	UnitBits: {}, UnitKilobits: {}, UnitMegabits: {}, UnitGigabits: {}, UnitTerabits: {},
	UnitPercent: {}, UnitCount: {},
	UnitBytesPerSecond: {}, UnitKilobytesPerSecond: {}, UnitMegabytesPerSecond: {},
	UnitGigabytesPerSecond: {}, UnitTerabytesPerSecond: {},
	UnitBitsPerSecond: {}, UnitKilobitsPerSecond: {}, UnitMegabitsPerSecond: {},
	UnitGigabitsPerSecond: {}, UnitTerabitsPerSecond: {},
	UnitCountPerSecond: {}, UnitNone: {},
}

// Valid reports whether u belongs to the backend unit set.
func (u Unit) Valid() bool {
	_, ok := units[u]
	return ok
}

// MetricDescriptor identifies one backend time series and the statistic to read
// from it. The same shape describes the output metric of a composite.
type MetricDescriptor struct {
	Name           string    `yaml:"name" json:"name"`
	Namespace      string    `yaml:"namespace" json:"namespace"`
	Statistic      Statistic `yaml:"statistic" json:"statistic"`
	DimensionName  string    `yaml:"dimension_name" json:"dimension_name"`
	DimensionValue string    `yaml:"dimension_value" json:"dimension_value"`
}

// String renders the descriptor as namespace/name{dim=value}:statistic.
func (m MetricDescriptor) String() string {
	return fmt.Sprintf("%s/%s{%s=%s}:%s", m.Namespace, m.Name, m.DimensionName, m.DimensionValue, m.Statistic)
}

// Dimension returns the descriptor's single name/value dimension.
func (m MetricDescriptor) Dimension() Dimension {
	return Dimension{Name: m.DimensionName, Value: m.DimensionValue}
}

// Dimension scopes a metric to one resource instance.
type Dimension struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TimeWindow is the absolute interval every input metric is read over.
// End.Sub(Start) always equals Period.
type TimeWindow struct {
	Start  time.Time
	End    time.Time
	Period time.Duration
}

// PeriodSeconds returns the window period in whole seconds.
func (w TimeWindow) PeriodSeconds() int64 {
	return int64(w.Period / time.Second)
}
