package usecases

import (
	"context"
	"fmt"

	"github.com/nereamendi/stormwatch/internal/core/domain"
	"github.com/nereamendi/stormwatch/internal/core/ports"
)

// WarningService handles warning lookup and acknowledgement.
type WarningService struct {
	warnings ports.WarningRepository
}

// NewWarningService creates a new WarningService.
func NewWarningService(warnings ports.WarningRepository) *WarningService {
	return &WarningService{warnings: warnings}
}

// GetByID returns a single warning.
func (s *WarningService) GetByID(ctx context.Context, id string) (*domain.Warning, error) {
	return s.warnings.GetByID(ctx, id)
}

// ListByRoute returns warnings for a route, newest first.
func (s *WarningService) ListByRoute(ctx context.Context, routeID string, includeAcked bool) ([]domain.Warning, error) {
	if routeID == "" {
		return nil, fmt.Errorf("route id must not be empty")
	}
	return s.warnings.ListByRoute(ctx, routeID, includeAcked)
}

// Acknowledge marks a warning as seen by the route operator.
func (s *WarningService) Acknowledge(ctx context.Context, id string) error {
	warning, err := s.warnings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if warning == nil {
		return fmt.Errorf("warning %s not found", id)
	}
	if warning.AcknowledgedAt != nil {
		return nil // already acknowledged, idempotent
	}
	return s.warnings.Acknowledge(ctx, id)
}

// Delete removes a warning, used by the notification saga to roll back
// a warning whose delivery failed permanently.
func (s *WarningService) Delete(ctx context.Context, id string) error {
	return s.warnings.Delete(ctx, id)
}
