package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nereamendi/stormwatch/internal/core/ports"
	"github.com/nereamendi/stormwatch/internal/core/usecases"
)

// WarningActivities holds the activity implementations for the warning
// delivery workflow.
type WarningActivities struct {
	Warnings *usecases.WarningService
	Routes   *usecases.RouteService
	Notifier ports.NotificationService
}

// ResolveOperatorContact returns the delivery address for a route's
// operator. Routes carry no contact directory yet, so the address is
// derived from the route name.
func (a *WarningActivities) ResolveOperatorContact(ctx context.Context, routeID string) (string, error) {
	route, err := a.Routes.GetByID(ctx, routeID)
	if err != nil {
		return "", fmt.Errorf("get route %s: %w", routeID, err)
	}
	if route == nil {
		return "", fmt.Errorf("route %s not found", routeID)
	}
	return "ops:" + route.ID, nil
}

// DeliverWarning sends the warning to the operator contact.
func (a *WarningActivities) DeliverWarning(ctx context.Context, contact, warningID string) error {
	warning, err := a.Warnings.GetByID(ctx, warningID)
	if err != nil {
		return fmt.Errorf("get warning %s: %w", warningID, err)
	}
	if warning == nil {
		return fmt.Errorf("warning %s not found", warningID)
	}

	if a.Notifier == nil {
		slog.Info("warning delivery (no notifier configured)",
			"contact", contact, "warning_id", warningID, "storm_id", warning.StormID)
		return nil
	}
	return a.Notifier.SendWarning(ctx, contact, warning)
}

// RollbackWarning removes a warning whose delivery failed permanently
// (saga compensation). The next scan of the route re-issues it.
func (a *WarningActivities) RollbackWarning(ctx context.Context, warningID string) error {
	if err := a.Warnings.Delete(ctx, warningID); err != nil {
		return fmt.Errorf("delete warning %s: %w", warningID, err)
	}
	slog.Info("warning rolled back after failed delivery", "warning_id", warningID)
	return nil
}
