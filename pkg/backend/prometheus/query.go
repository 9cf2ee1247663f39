package prometheus

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/obsidianstack/composite/pkg/types"
)

// rangeFuncs maps each statistic onto the PromQL range function that computes it.
var rangeFuncs = map[types.Statistic]string{
	types.SampleCount: "count_over_time",
	types.Average:     "avg_over_time",
	types.Sum:         "sum_over_time",
	types.Minimum:     "min_over_time",
	types.Maximum:     "max_over_time",
}

// statisticQuery renders e.g. avg_over_time(aws_ec2_cpu{instance_id="i-1"}[300s]).
func statisticQuery(m types.MetricDescriptor, w types.TimeWindow) (string, error) {
	fn, ok := rangeFuncs[m.Statistic]
	if !ok {
		return "", fmt.Errorf("prometheus: unsupported statistic %q", m.Statistic)
	}
	return fmt.Sprintf("%s(%s{%s=%s}[%ds])",
		fn,
		seriesName(m.Namespace, m.Name),
		labelName(m.DimensionName),
		strconv.Quote(m.DimensionValue),
		w.PeriodSeconds(),
	), nil
}

// seriesName joins namespace and name into a legal metric name.
func seriesName(namespace, name string) string {
	if namespace == "" {
		return sanitize(name, true)
	}
	return sanitize(namespace+"_"+name, true)
}

// labelName turns a dimension name into a legal label name.
func labelName(name string) string {
	return sanitize(name, false)
}

// sanitize replaces every character outside [a-zA-Z0-9_] (plus ':' for metric
// names) with '_' and prefixes a leading digit.
func sanitize(s string, allowColon bool) string {
	var b strings.Builder
	b.Grow(len(s) + 1)
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		case r == ':' && allowColon:
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
