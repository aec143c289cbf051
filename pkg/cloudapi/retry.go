package cloudapi

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go"
	"github.com/cuemby/taskctl/pkg/log"
	"github.com/cuemby/taskctl/pkg/metrics"
)

// RetryPolicy parameterizes withRetry. The register/deregister/update
// task-definition calls each want their own retry cap (6/3/5 attempts);
// this type lets every call site declare its own cap against one shared
// implementation instead of three copies of a retry loop.
type RetryPolicy struct {
	MaxAttempts uint
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Default policies, one per task-definition / service mutation.
var (
	RegisterTaskDefinitionRetry   = RetryPolicy{MaxAttempts: 6, BaseDelay: 3 * time.Second, MaxDelay: 10 * time.Second}
	DeregisterTaskDefinitionRetry = RetryPolicy{MaxAttempts: 3, BaseDelay: 3 * time.Second, MaxDelay: 10 * time.Second}
	UpdateServiceRetry            = RetryPolicy{MaxAttempts: 5, BaseDelay: 3 * time.Second, MaxDelay: 10 * time.Second}
	DefaultRetry                  = RetryPolicy{MaxAttempts: 5, BaseDelay: 3 * time.Second, MaxDelay: 10 * time.Second}
)

// withRetry runs fn, retrying only when classify(err) is ErrThrottled, up
// to policy.MaxAttempts, with an exponential backoff delay plus up to
// policy.BaseDelay of random jitter, capped at policy.MaxDelay — so
// concurrent workers throttled at the same instant don't all wake up in
// lockstep. Each throttled attempt increments
// taskctl_cloudapi_throttle_retries_total; once the call finishes, its
// final outcome and total duration across all attempts are recorded once
// to taskctl_cloudapi_requests_total and
// taskctl_cloudapi_request_duration_seconds.
func withRetry(ctx context.Context, operation string, policy RetryPolicy, fn func() error) error {
	timer := metrics.NewTimer()
	opLog := log.WithComponent("cloudapi")

	err := retry.Do(
		func() error {
			err := classify(fn())
			if errors.Is(err, ErrThrottled) {
				metrics.CloudAPIThrottleRetriesTotal.WithLabelValues(operation).Inc()
				opLog.Debug().Str("operation", operation).Msg("throttled, retrying")
			}
			return err
		},
		retry.Attempts(policy.MaxAttempts),
		retry.Delay(policy.BaseDelay),
		retry.MaxDelay(policy.MaxDelay),
		retry.MaxJitter(policy.BaseDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrThrottled)
		}),
		retry.LastErrorOnly(true),
	)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.CloudAPIRequestsTotal.WithLabelValues(operation, outcome).Inc()
	timer.ObserveDurationVec(metrics.CloudAPIRequestDuration, operation)

	return err
}
