package composite

import (
	"fmt"

	"github.com/obsidianstack/composite/pkg/types"
)

// Func computes a composite result from the samples of every input metric,
// given in the order the inputs were configured. It must not retain or modify
// samples. An error or a panic is reported to the caller as an
// AggregationError.
type Func func(samples []types.Sample) (types.Result, error)

// compose invokes fn exactly once and validates what it returns.
func compose(fn Func, samples []types.Sample) (res types.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &AggregationError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	res, err = fn(samples)
	if err != nil {
		return types.Result{}, &AggregationError{Err: err}
	}
	if err := ValidateResult(res); err != nil {
		return types.Result{}, err
	}
	return res, nil
}
