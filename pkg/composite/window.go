package composite

import (
	"time"

	"github.com/obsidianstack/composite/pkg/types"
)

// computeWindow returns the window of length period ending at now.
// period must already have passed ValidatePeriod.
func computeWindow(now time.Time, period time.Duration) types.TimeWindow {
	return types.TimeWindow{
		Start:  now.Add(-period),
		End:    now,
		Period: period,
	}
}
