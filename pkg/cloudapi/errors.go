package cloudapi

import (
	"errors"

	"github.com/aws/smithy-go"
)

// Errors surfaced by this package, checked with errors.Is by callers.
var (
	ErrNotFound        = errors.New("cloudapi: resource not found")
	ErrServiceNotFound = errors.New("cloudapi: service not found")
	ErrThrottled       = errors.New("cloudapi: request throttled")
	ErrWaiterTimeout   = errors.New("cloudapi: wait for stable timed out")
)

// throttlingCodes are the smithy.APIError codes ECS/EventBridge/Lambda use
// to signal rate limiting; classify retries these transparently.
var throttlingCodes = map[string]bool{
	"ThrottlingException":                    true,
	"TooManyRequestsException":               true,
	"RequestLimitExceeded":                   true,
	"ProvisionedThroughputExceededException": true,
}

var notFoundCodes = map[string]bool{
	"ClusterNotFoundException":  true,
	"ResourceNotFoundException": true,
}

var serviceNotFoundCodes = map[string]bool{
	"ServiceNotFoundException":  true,
	"ServiceNotActiveException": true,
}

// classify maps an AWS SDK error to this package's sentinel taxonomy by
// inspecting its smithy error code, the same pattern the kwok EC2 fake
// uses to construct classifiable errors in aws-karpenter-provider-aws.
// Errors that don't carry a recognized code pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	code := apiErr.ErrorCode()
	switch {
	case throttlingCodes[code]:
		return ErrThrottled
	case serviceNotFoundCodes[code]:
		return ErrServiceNotFound
	case notFoundCodes[code]:
		return ErrNotFound
	default:
		return err
	}
}

// isResourceConflict reports whether err is ECS/Lambda's "already exists"
// conflict code, which the EventBridge target permission step swallows
// as idempotent rather than treating as a failure.
func isResourceConflict(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	code := apiErr.ErrorCode()
	return code == "ResourceConflictException" || code == "ResourceInUseException"
}
