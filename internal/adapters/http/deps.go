package http

import (
	"github.com/nats-io/nats.go"

	"github.com/nereamendi/stormwatch/internal/adapters/postgres"
	"github.com/nereamendi/stormwatch/internal/adapters/valkey"
	"github.com/nereamendi/stormwatch/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Routes     *usecases.RouteService
	Advisories *usecases.AdvisoryService
	Scans      *usecases.ScanService
	Warnings   *usecases.WarningService
	NATS       *nats.Conn
	DB         *postgres.DB
	Cache      *valkey.Cache
}
