package cloudwatch

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"github.com/obsidianstack/composite/pkg/types"
)

// API is the subset of the CloudWatch SDK client used here.
type API interface {
	GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Config selects the AWS region. Credentials come from the default AWS chain.
type Config struct {
	Region string
}

// Client reads and writes metrics through the CloudWatch API.
// It is safe for concurrent use.
type Client struct {
	api API
}

// New loads the default AWS configuration for cfg.Region and returns a Client.
// SDK retries are disabled: a failed call is reported to the caller as is.
func New(ctx context.Context, cfg Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	)
	if err != nil {
		return nil, fmt.Errorf("cloudwatch: load aws config: %w", err)
	}
	return NewFromAPI(cloudwatch.NewFromConfig(awsCfg)), nil
}

// NewFromAPI wraps an existing SDK client (or a test double).
func NewFromAPI(api API) *Client {
	return &Client{api: api}
}

// GetMetricStatistics reads m's statistic over w in a single request whose
// period equals the window length. Datapoints are returned oldest first.
func (c *Client) GetMetricStatistics(ctx context.Context, m types.MetricDescriptor, w types.TimeWindow) (types.Sample, error) {
	out, err := c.api.GetMetricStatistics(ctx, statisticsInput(m, w))
	if err != nil {
		return types.Sample{}, fmt.Errorf("cloudwatch: get metric statistics %s: %w", m, err)
	}

	s := types.Sample{
		Metric:     m,
		Label:      aws.ToString(out.Label),
		Datapoints: make([]types.Datapoint, 0, len(out.Datapoints)),
	}
	for _, dp := range out.Datapoints {
		s.Datapoints = append(s.Datapoints, fromDatapoint(dp))
	}
	sort.SliceStable(s.Datapoints, func(i, j int) bool {
		return s.Datapoints[i].Timestamp.Before(s.Datapoints[j].Timestamp)
	})
	return s, nil
}

// PutMetricData writes req as a single MetricDatum.
func (c *Client) PutMetricData(ctx context.Context, req types.PublishRequest) (types.PublishResult, error) {
	out, err := c.api.PutMetricData(ctx, putInput(req))
	if err != nil {
		return types.PublishResult{}, fmt.Errorf("cloudwatch: put metric data %s/%s: %w", req.Namespace, req.MetricName, err)
	}
	var res types.PublishResult
	if out != nil {
		res.RequestID, _ = awsmiddleware.GetRequestIDMetadata(out.ResultMetadata)
	}
	return res, nil
}
