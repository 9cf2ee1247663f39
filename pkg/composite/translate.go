package composite

import (
	"time"

	"github.com/obsidianstack/composite/pkg/types"
)

// translate maps a validated result onto the backend write payload for the
// output metric at ts.
func translate(res types.Result, output types.MetricDescriptor, ts time.Time) types.PublishRequest {
	req := types.PublishRequest{
		Namespace:  output.Namespace,
		MetricName: output.Name,
		Dimensions: []types.Dimension{output.Dimension()},
		Timestamp:  ts,
		Unit:       res.Unit,
	}
	if req.Unit == "" {
		req.Unit = types.UnitCount
	}

	// Presence is decided by the pointer, so a Value of 0 is still published.
	if s := res.Statistics; s != nil {
		req.StatisticValues = &types.StatisticSet{
			Maximum:     s.Max,
			Minimum:     s.Min,
			SampleCount: s.Count,
			Sum:         s.Sum,
		}
	} else if res.Value != nil {
		v := *res.Value
		req.Value = &v
	}
	return req
}
