package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	natsadapter "github.com/nereamendi/stormwatch/internal/adapters/nats"
	"github.com/nereamendi/stormwatch/internal/adapters/postgres"
	"github.com/nereamendi/stormwatch/internal/core/domain"
	"github.com/nereamendi/stormwatch/internal/core/usecases"
	"github.com/nereamendi/stormwatch/internal/pkg/config"
	"github.com/nereamendi/stormwatch/internal/pkg/logging"
	"github.com/nereamendi/stormwatch/internal/pkg/metrics"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

type Manifest struct {
	Source string      `json:"source"`
	Feeds  []FeedEntry `json:"feeds"`
}

type FeedEntry struct {
	FeedID string `json:"feed_id"`
	Name   string `json:"name"`
	Basin  string `json:"basin"`
	URL    string `json:"url"`
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("stormwatch-poller")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	logger := logging.ForService("poller")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns))
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// NATS publisher for advisory-updated events
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		logger.Warn("nats unavailable, advisory events disabled", "error", err)
		publisher = nil
	} else {
		defer publisher.Close()
	}

	advisoryRepo := postgres.NewAdvisoryRepo(db)
	feedRepo := postgres.NewFeedStateRepo(db)
	var advisorySvc *usecases.AdvisoryService
	if publisher != nil {
		advisorySvc = usecases.NewAdvisoryService(advisoryRepo, feedRepo, publisher)
	} else {
		advisorySvc = usecases.NewAdvisoryService(advisoryRepo, feedRepo, nil)
	}

	// Load manifest
	manifestPath := cfg.Poller.ManifestPath
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	logger.Info("advisory poller starting",
		"feeds", len(manifest.Feeds),
		"source", manifest.Source,
		"interval_seconds", cfg.Poller.IntervalSeconds)

	client := &http.Client{Timeout: time.Duration(cfg.Poller.TimeoutSeconds) * time.Second}
	pollInterval := time.Duration(cfg.Poller.IntervalSeconds) * time.Second

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	// Signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	p := newPoller(logger, advisorySvc, client)
	p.seed(ctx, manifest.Feeds)

	staleAfter := time.Duration(cfg.Poller.StaleAfterHours) * time.Hour

	// Run once immediately
	p.pollAll(ctx, manifest.Feeds)
	p.expireStale(ctx, staleAfter)

	for {
		select {
		case <-ticker.C:
			p.pollAll(ctx, manifest.Feeds)
			p.expireStale(ctx, staleAfter)
		case <-ctx.Done():
			return
		case sig := <-quit:
			logger.Info("shutting down advisory poller", "signal", sig.String())
			cancel()
			// Give in-flight polls time to finish
			time.Sleep(2 * time.Second)
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Poll all feeds
// ---------------------------------------------------------------------------

// poller tracks consecutive failures per feed across poll cycles.
type poller struct {
	logger *slog.Logger
	svc    *usecases.AdvisoryService
	client *http.Client

	mu        sync.Mutex
	failures  map[string]int
	revisions map[string]string
}

func newPoller(logger *slog.Logger, svc *usecases.AdvisoryService, client *http.Client) *poller {
	return &poller{
		logger:    logger,
		svc:       svc,
		client:    client,
		failures:  make(map[string]int),
		revisions: make(map[string]string),
	}
}

// seed restores failure counts and last revisions from the stored feed
// state so a poller restart does not reset feed-health reporting.
func (p *poller) seed(ctx context.Context, feeds []FeedEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range feeds {
		state, err := p.svc.FeedState(ctx, f.FeedID)
		if err != nil {
			p.logger.Warn("load feed state", "feed", f.FeedID, "error", err)
			continue
		}
		if state == nil {
			continue
		}
		p.failures[f.FeedID] = state.FailureCount
		p.revisions[f.FeedID] = state.LastRevision
	}
}

// expireStale retires advisories the upstream feeds have stopped
// refreshing, so dissipated storms leave the active scan set.
func (p *poller) expireStale(ctx context.Context, maxAge time.Duration) {
	expired, err := p.svc.ExpireStale(ctx, maxAge)
	if err != nil {
		p.logger.Error("expire stale advisories", "error", err)
		return
	}
	if expired > 0 {
		p.logger.Info("stale advisories deactivated", "count", expired)
	}
}

func (p *poller) pollAll(ctx context.Context, feeds []FeedEntry) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, 4) // max 4 concurrent fetches

	for _, f := range feeds {
		wg.Add(1)
		go func(feed FeedEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			p.pollFeed(ctx, feed)
		}(f)
	}

	wg.Wait()
}

// pollFeed fetches one GeoJSON feed, ingests it, and records the poll
// outcome so /v1/feeds/status reflects feed health.
func (p *poller) pollFeed(ctx context.Context, feed FeedEntry) {
	start := time.Now()

	payload, err := fetchFeed(p.client, feed.URL)
	var revision string
	if err == nil {
		var upserted []domain.Advisory
		upserted, err = p.svc.IngestGeoJSON(ctx, feed.Basin, payload)
		if err == nil && len(upserted) > 0 {
			p.logger.Info("advisories ingested",
				"feed", feed.FeedID, "basin", feed.Basin, "count", len(upserted))
			metrics.AdvisoriesIngested.WithLabelValues(feed.Basin).Add(float64(len(upserted)))
			revision = upserted[len(upserted)-1].Revision
		}
	}

	metrics.FeedPollDuration.WithLabelValues(feed.FeedID).Observe(time.Since(start).Seconds())

	p.mu.Lock()
	if err != nil {
		p.failures[feed.FeedID]++
	} else {
		p.failures[feed.FeedID] = 0
		if revision != "" {
			p.revisions[feed.FeedID] = revision
		}
	}
	state := &domain.FeedState{
		FeedID:       feed.FeedID,
		URL:          feed.URL,
		Basin:        feed.Basin,
		LastRevision: p.revisions[feed.FeedID],
		FailureCount: p.failures[feed.FeedID],
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Error("feed poll failed", "feed", feed.FeedID, "error", err)
		metrics.FeedPollErrors.WithLabelValues(feed.FeedID).Inc()
		state.LastError = err.Error()
	}

	if rerr := p.svc.RecordPoll(ctx, state); rerr != nil {
		p.logger.Error("record poll state", "feed", feed.FeedID, "error", rerr)
	}
}

// ---------------------------------------------------------------------------
// Fetch GeoJSON feed
// ---------------------------------------------------------------------------

func fetchFeed(client *http.Client, url string) ([]byte, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
