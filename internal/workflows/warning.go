package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// TaskQueue is the Temporal task queue the notifier worker listens on.
const TaskQueue = "storm-notifications"

// WarningInput is the input for the warning delivery workflow.
type WarningInput struct {
	WarningID string
	RouteID   string
	StormID   string
	Kind      string
	PointLat  float64
	PointLon  float64
}

// WarningWorkflow orchestrates delivering a storm warning to the route
// operator. If delivery fails permanently, the warning is rolled back
// (saga compensation) so the next scan re-issues it.
func WarningWorkflow(ctx workflow.Context, input WarningInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting warning delivery workflow", "warningID", input.WarningID, "stormID", input.StormID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Resolve the operator contact for the route
	var contact string
	err := workflow.ExecuteActivity(ctx, "ResolveOperatorContact", input.RouteID).Get(ctx, &contact)
	if err != nil {
		return err
	}

	// Step 2: Deliver the warning
	err = workflow.ExecuteActivity(ctx, "DeliverWarning", contact, input.WarningID).Get(ctx, nil)
	if err != nil {
		logger.Warn("warning delivery failed, compensating", "error", err)
		// Compensate: drop the warning so the next scan re-issues it
		_ = workflow.ExecuteActivity(ctx, "RollbackWarning", input.WarningID).Get(ctx, nil)
		return err
	}

	logger.Info("Warning delivered", "warningID", input.WarningID, "contact", contact)
	return nil
}
