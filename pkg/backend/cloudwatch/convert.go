package cloudwatch

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/obsidianstack/composite/pkg/types"
)

func statisticsInput(m types.MetricDescriptor, w types.TimeWindow) *cloudwatch.GetMetricStatisticsInput {
	return &cloudwatch.GetMetricStatisticsInput{
		MetricName: aws.String(m.Name),
		Namespace:  aws.String(m.Namespace),
		StartTime:  aws.Time(w.Start),
		EndTime:    aws.Time(w.End),
		Period:     aws.Int32(int32(w.PeriodSeconds())),
		Statistics: []cwtypes.Statistic{cwtypes.Statistic(m.Statistic)},
		Dimensions: []cwtypes.Dimension{{
			Name:  aws.String(m.DimensionName),
			Value: aws.String(m.DimensionValue),
		}},
	}
}

func fromDatapoint(dp cwtypes.Datapoint) types.Datapoint {
	return types.Datapoint{
		Timestamp:   aws.ToTime(dp.Timestamp),
		Unit:        types.Unit(dp.Unit),
		SampleCount: dp.SampleCount,
		Average:     dp.Average,
		Sum:         dp.Sum,
		Minimum:     dp.Minimum,
		Maximum:     dp.Maximum,
	}
}

func putInput(req types.PublishRequest) *cloudwatch.PutMetricDataInput {
	datum := cwtypes.MetricDatum{
		MetricName: aws.String(req.MetricName),
		Timestamp:  aws.Time(req.Timestamp),
		Unit:       cwtypes.StandardUnit(req.Unit),
	}
	for _, d := range req.Dimensions {
		datum.Dimensions = append(datum.Dimensions, cwtypes.Dimension{
			Name:  aws.String(d.Name),
			Value: aws.String(d.Value),
		})
	}
	switch {
	case req.StatisticValues != nil:
		sv := req.StatisticValues
		datum.StatisticValues = &cwtypes.StatisticSet{
			Maximum:     aws.Float64(sv.Maximum),
			Minimum:     aws.Float64(sv.Minimum),
			SampleCount: aws.Float64(sv.SampleCount),
			Sum:         aws.Float64(sv.Sum),
		}
	case req.Value != nil:
		datum.Value = aws.Float64(*req.Value)
	}

	return &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(req.Namespace),
		MetricData: []cwtypes.MetricDatum{datum},
	}
}
