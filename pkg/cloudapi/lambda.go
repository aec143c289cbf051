package cloudapi

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
)

// AddInvokePermission grants EventBridge permission to invoke the given
// Lambda function from the given rule ARN. Idempotent: a ResourceConflict
// (the statement already exists from a previous run) is swallowed rather
// than surfaced, since re-running the same deploy should not fail on it.
func (c *Client) AddInvokePermission(ctx context.Context, functionName, statementID, ruleArn string) error {
	err := withRetry(ctx, "AddPermission", DefaultRetry, func() error {
		_, err := c.Lambda.AddPermission(ctx, &lambda.AddPermissionInput{
			FunctionName: aws.String(functionName),
			StatementId:  aws.String(statementID),
			Action:       aws.String("lambda:InvokeFunction"),
			Principal:    aws.String("events.amazonaws.com"),
			SourceArn:    aws.String(ruleArn),
		})
		return err
	})
	if err != nil && !isResourceConflict(err) {
		return fmt.Errorf("cloudapi: add lambda invoke permission: %w", err)
	}
	return nil
}

// RemoveInvokePermission revokes a previously granted permission. A
// missing statement (already removed, or never granted) is not an error.
func (c *Client) RemoveInvokePermission(ctx context.Context, functionName, statementID string) error {
	err := withRetry(ctx, "RemovePermission", DefaultRetry, func() error {
		_, err := c.Lambda.RemovePermission(ctx, &lambda.RemovePermissionInput{
			FunctionName: aws.String(functionName),
			StatementId:  aws.String(statementID),
		})
		return err
	})
	if err != nil && err != ErrNotFound {
		return fmt.Errorf("cloudapi: remove lambda invoke permission: %w", err)
	}
	return nil
}
