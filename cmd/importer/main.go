package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/nereamendi/stormwatch/internal/adapters/postgres"
	"github.com/nereamendi/stormwatch/internal/core/domain"
	"github.com/nereamendi/stormwatch/internal/core/usecases"
	"github.com/nereamendi/stormwatch/internal/pkg/config"
	"github.com/nereamendi/stormwatch/internal/pkg/geo"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("usage: importer routes <routes.csv> | importer advisories <basin> <file.geojson...>")
	}

	cfg, err := config.Load("stormwatch-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns))
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "routes":
		svc := usecases.NewRouteService(postgres.NewRouteRepo(db), nil)
		if err := importRoutes(ctx, svc, os.Args[2]); err != nil {
			log.Fatalf("import routes: %v", err)
		}
	case "advisories":
		if len(os.Args) < 4 {
			log.Fatal("usage: importer advisories <basin> <file.geojson...>")
		}
		svc := usecases.NewAdvisoryService(postgres.NewAdvisoryRepo(db), postgres.NewFeedStateRepo(db), nil)
		importAdvisories(ctx, svc, os.Args[2], os.Args[3:])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

// ---------------------------------------------------------------------------
// Route CSV import
// ---------------------------------------------------------------------------

// importRoutes reads a waypoint CSV and upserts one route per distinct
// route name. Expected columns: route,origin,destination,waypoint,lat,lon.
// Rows for a route must be contiguous and in waypoint order.
func importRoutes(ctx context.Context, svc *usecases.RouteService, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	for _, required := range []string{"route", "lat", "lon"} {
		if _, ok := cols[required]; !ok {
			return fmt.Errorf("missing column %q in %s", required, path)
		}
	}

	var (
		current  *domain.Route
		aborted  string // route name dropped because of a bad row
		imported int
		skipped  int
	)

	flush := func() {
		if current == nil {
			return
		}
		if _, err := svc.Create(ctx, current); err != nil {
			log.Printf("ERROR [%s]: %v", current.Name, err)
			skipped++
		} else {
			log.Printf("[%s] %d waypoints", current.Name, len(current.Waypoints))
			imported++
		}
		current = nil
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Printf("line %d: %v (skipping)", line, err)
			continue
		}

		name := strings.TrimSpace(record[cols["route"]])
		if name == "" || name == aborted {
			continue
		}

		if current == nil || current.Name != name {
			flush()
			current = &domain.Route{
				Name:        name,
				Origin:      getField(record, cols, "origin"),
				Destination: getField(record, cols, "destination"),
			}
		}

		p, err := geo.ParsePoint(getField(record, cols, "lat"), getField(record, cols, "lon"))
		if err != nil {
			// A route with a hole in its geometry would scan as if the
			// missing leg never existed, so the whole route is rejected.
			log.Printf("line %d [%s]: %v (route aborted)", line, name, err)
			current = nil
			aborted = name
			skipped++
			continue
		}
		current.Waypoints = append(current.Waypoints, domain.Waypoint{
			Name:     getField(record, cols, "waypoint"),
			Location: p,
		})
	}
	flush()

	log.Printf("routes: %d imported, %d failed", imported, skipped)
	return nil
}

// ---------------------------------------------------------------------------
// Advisory GeoJSON import
// ---------------------------------------------------------------------------

func importAdvisories(ctx context.Context, svc *usecases.AdvisoryService, basin string, paths []string) {
	total := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("ERROR [%s]: %v", path, err)
			continue
		}

		upserted, err := svc.IngestGeoJSON(ctx, basin, data)
		if err != nil {
			log.Printf("ERROR [%s]: %v", path, err)
			continue
		}

		for _, adv := range upserted {
			log.Printf("[%s] storm %s rev %.12s (%d features)", path, adv.StormID, adv.Revision, len(adv.Features))
		}
		total += len(upserted)
	}
	log.Printf("advisories: %d upserted into basin %s", total, basin)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func indexColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		// Strip BOM from first column
		col = strings.TrimPrefix(col, "\xef\xbb\xbf")
		m[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return m
}

func getField(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
