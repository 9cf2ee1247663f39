package cloudwatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/smithy-go/middleware"

	"github.com/obsidianstack/composite/pkg/types"
)

// fakeAPI records the last request of each kind and returns canned answers.
type fakeAPI struct {
	getIn  *cloudwatch.GetMetricStatisticsInput
	getOut *cloudwatch.GetMetricStatisticsOutput
	getErr error

	putIn  *cloudwatch.PutMetricDataInput
	putOut *cloudwatch.PutMetricDataOutput
	putErr error
}

func (f *fakeAPI) GetMetricStatistics(_ context.Context, in *cloudwatch.GetMetricStatisticsInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error) {
	f.getIn = in
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeAPI) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.putIn = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	return f.putOut, nil
}

var (
	t0  = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cpu = types.MetricDescriptor{
		Name:           "CPUUtilization",
		Namespace:      "AWS/EC2",
		Statistic:      types.Average,
		DimensionName:  "InstanceId",
		DimensionValue: "i-0abc",
	}
)

func TestGetMetricStatistics_BuildsRequest(t *testing.T) {
	api := &fakeAPI{getOut: &cloudwatch.GetMetricStatisticsOutput{}}
	c := NewFromAPI(api)

	w := types.TimeWindow{Start: t0.Add(-5 * time.Minute), End: t0, Period: 5 * time.Minute}
	if _, err := c.GetMetricStatistics(context.Background(), cpu, w); err != nil {
		t.Fatalf("GetMetricStatistics() error = %v", err)
	}

	in := api.getIn
	if got := aws.ToString(in.MetricName); got != "CPUUtilization" {
		t.Errorf("MetricName = %q", got)
	}
	if got := aws.ToString(in.Namespace); got != "AWS/EC2" {
		t.Errorf("Namespace = %q", got)
	}
	if got := aws.ToInt32(in.Period); got != 300 {
		t.Errorf("Period = %d, want 300", got)
	}
	if !aws.ToTime(in.StartTime).Equal(w.Start) || !aws.ToTime(in.EndTime).Equal(w.End) {
		t.Errorf("window = [%v, %v], want [%v, %v]", in.StartTime, in.EndTime, w.Start, w.End)
	}
	if len(in.Statistics) != 1 || in.Statistics[0] != cwtypes.StatisticAverage {
		t.Errorf("Statistics = %v, want [Average]", in.Statistics)
	}
	if len(in.Dimensions) != 1 ||
		aws.ToString(in.Dimensions[0].Name) != "InstanceId" ||
		aws.ToString(in.Dimensions[0].Value) != "i-0abc" {
		t.Errorf("Dimensions = %+v", in.Dimensions)
	}
}

func TestGetMetricStatistics_SortsDatapoints(t *testing.T) {
	api := &fakeAPI{getOut: &cloudwatch.GetMetricStatisticsOutput{
		Label: aws.String("CPUUtilization"),
		Datapoints: []cwtypes.Datapoint{
			{Timestamp: aws.Time(t0), Average: aws.Float64(30), Unit: cwtypes.StandardUnitPercent},
			{Timestamp: aws.Time(t0.Add(-time.Minute)), Average: aws.Float64(10), Unit: cwtypes.StandardUnitPercent},
		},
	}}
	s, err := NewFromAPI(api).GetMetricStatistics(context.Background(), cpu,
		types.TimeWindow{Start: t0.Add(-2 * time.Minute), End: t0, Period: 2 * time.Minute})
	if err != nil {
		t.Fatalf("GetMetricStatistics() error = %v", err)
	}

	if s.Label != "CPUUtilization" {
		t.Errorf("Label = %q", s.Label)
	}
	if s.Metric != cpu {
		t.Errorf("Metric = %+v, want %+v", s.Metric, cpu)
	}
	got := s.Values()
	if len(got) != 2 || got[0] != 10 || got[1] != 30 {
		t.Errorf("Values() = %v, want [10 30]", got)
	}
	if s.Datapoints[0].Unit != types.UnitPercent {
		t.Errorf("Unit = %q, want Percent", s.Datapoints[0].Unit)
	}
}

func TestGetMetricStatistics_NoData(t *testing.T) {
	api := &fakeAPI{getOut: &cloudwatch.GetMetricStatisticsOutput{}}
	s, err := NewFromAPI(api).GetMetricStatistics(context.Background(), cpu,
		types.TimeWindow{Start: t0.Add(-time.Minute), End: t0, Period: time.Minute})
	if err != nil {
		t.Fatalf("no data should not be an error, got %v", err)
	}
	if !s.Empty() {
		t.Errorf("expected empty sample, got %d datapoints", len(s.Datapoints))
	}
}

func TestGetMetricStatistics_Error(t *testing.T) {
	boom := errors.New("throttled")
	api := &fakeAPI{getErr: boom}
	_, err := NewFromAPI(api).GetMetricStatistics(context.Background(), cpu,
		types.TimeWindow{Start: t0.Add(-time.Minute), End: t0, Period: time.Minute})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}
}

func TestPutMetricData_Value(t *testing.T) {
	var md middleware.Metadata
	awsmiddleware.SetRequestIDMetadata(&md, "req-123")
	api := &fakeAPI{putOut: &cloudwatch.PutMetricDataOutput{ResultMetadata: md}}

	zero := 0.0
	res, err := NewFromAPI(api).PutMetricData(context.Background(), types.PublishRequest{
		Namespace:  "Composite",
		MetricName: "FleetCPU",
		Dimensions: []types.Dimension{{Name: "Fleet", Value: "web"}},
		Timestamp:  t0,
		Unit:       types.UnitCount,
		Value:      &zero,
	})
	if err != nil {
		t.Fatalf("PutMetricData() error = %v", err)
	}
	if res.RequestID != "req-123" {
		t.Errorf("RequestID = %q, want req-123", res.RequestID)
	}

	in := api.putIn
	if aws.ToString(in.Namespace) != "Composite" {
		t.Errorf("Namespace = %q", aws.ToString(in.Namespace))
	}
	if len(in.MetricData) != 1 {
		t.Fatalf("MetricData len = %d, want 1", len(in.MetricData))
	}
	d := in.MetricData[0]
	if d.Value == nil || *d.Value != 0 {
		t.Errorf("Value = %v, want 0 (zero must not be dropped)", d.Value)
	}
	if d.StatisticValues != nil {
		t.Errorf("StatisticValues = %+v, want nil", d.StatisticValues)
	}
	if d.Unit != cwtypes.StandardUnitCount {
		t.Errorf("Unit = %q", d.Unit)
	}
	if !aws.ToTime(d.Timestamp).Equal(t0) {
		t.Errorf("Timestamp = %v, want %v", d.Timestamp, t0)
	}
}

func TestPutMetricData_StatisticValues(t *testing.T) {
	api := &fakeAPI{putOut: &cloudwatch.PutMetricDataOutput{}}
	_, err := NewFromAPI(api).PutMetricData(context.Background(), types.PublishRequest{
		Namespace:       "Composite",
		MetricName:      "Requests",
		Dimensions:      []types.Dimension{{Name: "Service", Value: "api"}},
		Timestamp:       t0,
		Unit:            types.UnitCount,
		StatisticValues: &types.StatisticSet{Maximum: 10, Minimum: 2, SampleCount: 5, Sum: 20},
	})
	if err != nil {
		t.Fatalf("PutMetricData() error = %v", err)
	}

	sv := api.putIn.MetricData[0].StatisticValues
	if sv == nil {
		t.Fatal("StatisticValues is nil")
	}
	if aws.ToFloat64(sv.Maximum) != 10 || aws.ToFloat64(sv.Minimum) != 2 ||
		aws.ToFloat64(sv.SampleCount) != 5 || aws.ToFloat64(sv.Sum) != 20 {
		t.Errorf("StatisticValues = {%v %v %v %v}, want {10 2 5 20}",
			aws.ToFloat64(sv.Maximum), aws.ToFloat64(sv.Minimum),
			aws.ToFloat64(sv.SampleCount), aws.ToFloat64(sv.Sum))
	}
	if api.putIn.MetricData[0].Value != nil {
		t.Error("Value should be nil when StatisticValues is set")
	}
}

func TestPutMetricData_Error(t *testing.T) {
	boom := errors.New("access denied")
	api := &fakeAPI{putErr: boom}
	v := 1.0
	_, err := NewFromAPI(api).PutMetricData(context.Background(), types.PublishRequest{
		Namespace: "Composite", MetricName: "X", Unit: types.UnitCount, Value: &v,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}
}
