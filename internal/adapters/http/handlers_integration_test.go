//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nereamendi/stormwatch/internal/adapters/http"
	"github.com/nereamendi/stormwatch/internal/adapters/postgres"
	"github.com/nereamendi/stormwatch/internal/core/domain"
	"github.com/nereamendi/stormwatch/internal/core/usecases"
	"github.com/nereamendi/stormwatch/internal/pkg/config"
)

// setupTestDB connects to the test database.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("stormwatch-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}

	db := &postgres.DB{Pool: pool}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping db: %v", err)
	}

	return db
}

// setupTestDeps creates dependencies with real repos, no cache or broker.
func setupTestDeps(t *testing.T, db *postgres.DB) *http.Dependencies {
	routeRepo := postgres.NewRouteRepo(db)
	advisoryRepo := postgres.NewAdvisoryRepo(db)
	warningRepo := postgres.NewWarningRepo(db)
	feedRepo := postgres.NewFeedStateRepo(db)

	return &http.Dependencies{
		Routes:     usecases.NewRouteService(routeRepo, nil),
		Advisories: usecases.NewAdvisoryService(advisoryRepo, feedRepo, nil),
		Scans:      usecases.NewScanService(routeRepo, advisoryRepo, warningRepo, nil, nil),
		Warnings:   usecases.NewWarningService(warningRepo),
		DB:         db,
	}
}

// seedTestRoute inserts a two-waypoint route and returns its ID.
func seedTestRoute(t *testing.T, deps *http.Dependencies, name string) string {
	ctx := context.Background()
	route, err := deps.Routes.Create(ctx, &domain.Route{
		Name:        name,
		Origin:      "Yokohama",
		Destination: "Oakland",
		Waypoints: []domain.Waypoint{
			{Name: "Yokohama", Location: domain.GeoPoint{Lat: 35.45, Lon: 139.65}},
			{Name: "Oakland", Location: domain.GeoPoint{Lat: 37.8, Lon: -122.3}},
		},
	})
	if err != nil {
		t.Fatalf("seed route: %v", err)
	}
	return route.ID
}

// seedTestAdvisory ingests a single-cone advisory for the given storm.
func seedTestAdvisory(t *testing.T, deps *http.Dependencies, stormID string) {
	ctx := context.Background()
	payload := `{
		"type": "FeatureCollection",
		"features": [{
			"type": "Feature",
			"properties": {"storm_id": "` + stormID + `", "name": "TEST"},
			"geometry": {
				"type": "Polygon",
				"coordinates": [[[-60, 20], [-58, 20], [-58, 22], [-60, 22], [-60, 20]]]
			}
		}]
	}`
	if _, err := deps.Advisories.IngestGeoJSON(ctx, "AL", []byte(payload)); err != nil {
		t.Fatalf("seed advisory: %v", err)
	}
}

// TestRouteLifecycle_Integration exercises create, fetch, and centroid
// against a real database.
func TestRouteLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	name := "test_integ_" + time.Now().Format("20060102150405")
	routeID := seedTestRoute(t, deps, name)

	req := httptest.NewRequest("GET", "/v1/routes/"+routeID, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var route domain.Route
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if route.Name != name {
		t.Errorf("expected name %s, got %s", name, route.Name)
	}
	if len(route.Waypoints) != 2 {
		t.Errorf("expected 2 waypoints, got %d", len(route.Waypoints))
	}

	req = httptest.NewRequest("GET", "/v1/routes/"+routeID+"/centroid", nil)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("centroid request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 for centroid, got %d", resp.StatusCode)
	}
}

// TestIngestAndList_Integration round-trips an advisory through the
// ingest endpoint and a real database.
func TestIngestAndList_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	stormID := "test" + time.Now().Format("0102150405")
	seedTestAdvisory(t, deps, stormID)

	req := httptest.NewRequest("GET", "/v1/advisories/active", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var advisories []domain.Advisory
	if err := json.NewDecoder(resp.Body).Decode(&advisories); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	found := false
	for _, adv := range advisories {
		if adv.StormID == stormID {
			found = true
			if len(adv.Features) != 1 {
				t.Errorf("expected 1 feature, got %d", len(adv.Features))
			}
		}
	}
	if !found {
		t.Errorf("expected storm %s in active advisories", stormID)
	}
}

// TestScanRoute_Integration scans a stored route crossing a seeded cone.
func TestScanRoute_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	stormID := "scan" + time.Now().Format("0102150405")
	seedTestAdvisory(t, deps, stormID)

	// Route crossing the seeded cone at (21, -59).
	ctx := context.Background()
	route, err := deps.Routes.Create(ctx, &domain.Route{
		Name: "test_scan_" + stormID,
		Waypoints: []domain.Waypoint{
			{Location: domain.GeoPoint{Lat: 21, Lon: -70}},
			{Location: domain.GeoPoint{Lat: 21, Lon: -50}},
		},
	})
	if err != nil {
		t.Fatalf("seed route: %v", err)
	}

	req := httptest.NewRequest("POST", "/v1/routes/"+route.ID+"/scan", strings.NewReader(""))
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("scan request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result domain.ScanResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Intersection == nil {
		t.Fatal("expected intersection with seeded cone")
	}
	if result.Intersection.StormID != stormID {
		t.Errorf("expected storm %s, got %s", stormID, result.Intersection.StormID)
	}

	// The warning must be queryable afterwards.
	req = httptest.NewRequest("GET", "/v1/routes/"+route.ID+"/warnings", nil)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("warnings request: %v", err)
	}
	var warnings []domain.Warning
	if err := json.NewDecoder(resp.Body).Decode(&warnings); err != nil {
		t.Fatalf("decode warnings: %v", err)
	}
	if len(warnings) == 0 {
		t.Error("expected at least 1 warning after a hit scan")
	}
}
