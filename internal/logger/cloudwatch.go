package logger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/sirupsen/logrus"
)

// CloudWatchConfig holds configuration for the CloudWatch Logs hook.
type CloudWatchConfig struct {
	Enabled       bool
	Region        string
	LogGroup      string
	LogStream     string
	RetentionDays int32
	PutTimeout    time.Duration
}

// CloudWatchHook ships log entries to AWS CloudWatch Logs. Delivery is
// best-effort: the pipeline must never depend on the sink's durability, so
// failed puts are dropped silently.
type CloudWatchHook struct {
	client     *cloudwatchlogs.Client
	group      string
	stream     string
	putTimeout time.Duration

	mu sync.Mutex
}

// NewCloudWatchHook creates the hook, ensuring the log group exists with the
// configured retention policy and that the log stream exists.
// Parameters:
//   - ctx: context for the setup calls.
//   - cfg: hook configuration.
// Returns:
//   - *CloudWatchHook: initialized hook ready to register via AddHook.
//   - error: non-nil if AWS configuration or group/stream setup fails.
func NewCloudWatchHook(ctx context.Context, cfg *CloudWatchConfig) (*CloudWatchHook, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := cloudwatchlogs.NewFromConfig(awsCfg)

	hook := &CloudWatchHook{
		client:     client,
		group:      cfg.LogGroup,
		stream:     cfg.LogStream,
		putTimeout: cfg.PutTimeout,
	}
	if hook.putTimeout <= 0 {
		hook.putTimeout = 5 * time.Second
	}

	if err := hook.ensureGroup(ctx, cfg.RetentionDays); err != nil {
		return nil, err
	}
	if err := hook.ensureStream(ctx); err != nil {
		return nil, err
	}

	return hook, nil
}

// ensureGroup creates the log group if it does not exist and applies the
// retention policy.
func (h *CloudWatchHook) ensureGroup(ctx context.Context, retentionDays int32) error {
	out, err := h.client.DescribeLogGroups(ctx, &cloudwatchlogs.DescribeLogGroupsInput{
		LogGroupNamePrefix: aws.String(h.group),
	})
	if err != nil {
		return fmt.Errorf("failed to describe log groups: %w", err)
	}

	exists := false
	for _, lg := range out.LogGroups {
		if aws.ToString(lg.LogGroupName) == h.group {
			exists = true
			break
		}
	}

	if !exists {
		if _, err := h.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
			LogGroupName: aws.String(h.group),
		}); err != nil {
			var alreadyExists *types.ResourceAlreadyExistsException
			if !errors.As(err, &alreadyExists) {
				return fmt.Errorf("failed to create log group %q: %w", h.group, err)
			}
		}
	}

	if retentionDays > 0 {
		if _, err := h.client.PutRetentionPolicy(ctx, &cloudwatchlogs.PutRetentionPolicyInput{
			LogGroupName:    aws.String(h.group),
			RetentionInDays: aws.Int32(retentionDays),
		}); err != nil {
			return fmt.Errorf("failed to set retention policy on %q: %w", h.group, err)
		}
	}

	return nil
}

// ensureStream creates the log stream if it does not exist.
func (h *CloudWatchHook) ensureStream(ctx context.Context) error {
	_, err := h.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(h.group),
		LogStreamName: aws.String(h.stream),
	})
	if err != nil {
		var alreadyExists *types.ResourceAlreadyExistsException
		if errors.As(err, &alreadyExists) {
			return nil
		}
		return fmt.Errorf("failed to create log stream %q: %w", h.stream, err)
	}
	return nil
}

// Levels implements logrus.Hook.
func (h *CloudWatchHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook. Each entry is put synchronously with a short
// timeout; delivery failures are swallowed.
func (h *CloudWatchHook) Fire(entry *logrus.Entry) error {
	line, err := entry.String()
	if err != nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), h.putTimeout)
	defer cancel()

	_, _ = h.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(h.group),
		LogStreamName: aws.String(h.stream),
		LogEvents: []types.InputLogEvent{
			{
				Message:   aws.String(line),
				Timestamp: aws.Int64(entry.Time.UnixMilli()),
			},
		},
	})
	return nil
}
