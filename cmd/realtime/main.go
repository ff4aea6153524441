package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	natsadapter "github.com/aldapa/trackside/internal/adapters/nats"
	"github.com/aldapa/trackside/internal/adapters/postgres"
	"github.com/aldapa/trackside/internal/core/domain"
	"github.com/aldapa/trackside/internal/pkg/config"
	"github.com/aldapa/trackside/internal/pkg/metrics"
)

// ---------------------------------------------------------------------------
// Manifest types (same as ingestor)
// ---------------------------------------------------------------------------

type Manifest struct {
	Source string      `json:"source"`
	Feeds  []FeedEntry `json:"feeds"`
}

type FeedEntry struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	LiveURL string `json:"live_url,omitempty"`
}

type FeedDocument struct {
	Hazards []domain.HazardPoint `json:"hazards"`
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("trackside-realtime")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	hazardRepo := postgres.NewHazardRepo(&postgres.DB{Pool: pool})

	// NATS — the whole point of this binary is pushing live updates, so a
	// missing broker is fatal here.
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	// Load manifest
	manifestPath := cfg.Ingest.ManifestPath
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

	// Filter to feeds that publish live updates
	var liveFeeds []FeedEntry
	for _, f := range manifest.Feeds {
		if f.LiveURL != "" {
			liveFeeds = append(liveFeeds, f)
		}
	}

	log.Printf("Trackside Realtime Poller — %d live feeds", len(liveFeeds))

	client := &http.Client{Timeout: 30 * time.Second}
	pollInterval := time.Duration(cfg.Ingest.IntervalSecs) * time.Second

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Printf("polling every %s", pollInterval)

	// Signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Run once immediately
	pollAll(ctx, hazardRepo, pub, client, liveFeeds, cfg.Ingest.Workers)

	for {
		select {
		case <-ticker.C:
			pollAll(ctx, hazardRepo, pub, client, liveFeeds, cfg.Ingest.Workers)
		case <-ctx.Done():
			return
		case sig := <-quit:
			log.Printf("received signal %v, shutting down realtime poller", sig)
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

func pollAll(ctx context.Context, repo *postgres.HazardRepo, pub *natsadapter.Publisher, client *http.Client, feeds []FeedEntry, workers int) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for _, f := range feeds {
		wg.Add(1)
		go func(feed FeedEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := pollFeed(ctx, repo, pub, client, feed); err != nil {
				metrics.FeedPollErrors.WithLabelValues(feed.Name).Inc()
				log.Printf("[%s] %v", feed.Name, err)
			}
		}(f)
	}

	wg.Wait()
}

// ---------------------------------------------------------------------------
// Per-feed poll
// ---------------------------------------------------------------------------

func pollFeed(ctx context.Context, repo *postgres.HazardRepo, pub *natsadapter.Publisher, client *http.Client, feed FeedEntry) error {
	start := time.Now()

	doc, err := fetchFeed(client, feed.LiveURL)
	if err != nil {
		return err
	}
	metrics.FeedPollDuration.WithLabelValues(feed.Name).Observe(time.Since(start).Seconds())

	upserted := 0
	for _, h := range doc.Hazards {
		if !h.Position.Valid() {
			continue
		}

		h := h
		if err := repo.Upsert(ctx, &h); err != nil {
			// Log but continue — one bad record must not stall the feed
			log.Printf("[%s] upsert %s: %v", feed.Name, h.ID, err)
			continue
		}
		upserted++

		metrics.HazardsIngested.WithLabelValues(string(h.Category)).Inc()
		if err := pub.PublishHazard(ctx, &h); err != nil {
			log.Printf("[%s] publish %s: %v", feed.Name, h.ID, err)
		}
	}

	if upserted > 0 {
		// Nudge WebSocket clients so they can refetch their nearby view.
		payload, _ := json.Marshal(map[string]any{
			"source":  feed.Name,
			"hazards": upserted,
			"at":      time.Now().UTC(),
		})
		if err := pub.PublishBroadcast(ctx, payload); err != nil {
			log.Printf("[%s] broadcast: %v", feed.Name, err)
		}
		log.Printf("[%s] %d hazards refreshed", feed.Name, upserted)
	}
	return nil
}

func fetchFeed(client *http.Client, url string) (*FeedDocument, error) {
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

	var doc FeedDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return &doc, nil
}
