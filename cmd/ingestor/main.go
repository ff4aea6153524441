package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	natsadapter "github.com/aldapa/trackside/internal/adapters/nats"
	"github.com/aldapa/trackside/internal/adapters/postgres"
	"github.com/aldapa/trackside/internal/core/domain"
	"github.com/aldapa/trackside/internal/pkg/config"
	"github.com/aldapa/trackside/internal/pkg/metrics"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

type Manifest struct {
	Source string      `json:"source"`
	Feeds  []FeedEntry `json:"feeds"`
}

type FeedEntry struct {
	Name string `json:"name"`
	// URL points at a JSON hazard feed; a plain filesystem path also works.
	URL string `json:"url"`
	// LiveURL is polled by the realtime binary, not the bulk ingestor.
	LiveURL string `json:"live_url,omitempty"`
}

// FeedDocument is the payload each feed serves.
type FeedDocument struct {
	Hazards []domain.HazardPoint `json:"hazards"`
	Zones   []domain.HazardZone  `json:"zones,omitempty"`
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("trackside-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	db := &postgres.DB{Pool: pool}
	hazardRepo := postgres.NewHazardRepo(db)
	zoneRepo := postgres.NewZoneRepo(db)

	// NATS is optional for bulk loads; events only flow when it is up.
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Printf("WARNING: nats unavailable, ingesting without events: %v", err)
		pub = nil
	} else {
		defer pub.Close()
	}

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

	log.Printf("Trackside Hazard Ingestor — %d feeds from %s", len(manifest.Feeds), manifest.Source)

	// Filter feeds (optional CLI arg: name list)
	nameFilter := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			nameFilter[strings.TrimSpace(s)] = true
		}
	}

	client := &http.Client{Timeout: 120 * time.Second}

	var wg sync.WaitGroup
	sem := make(chan struct{}, cfg.Ingest.Workers)

	for _, feed := range manifest.Feeds {
		if len(nameFilter) > 0 && !nameFilter[feed.Name] {
			continue
		}

		wg.Add(1)
		go func(f FeedEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ingestFeed(ctx, hazardRepo, zoneRepo, pub, client, f); err != nil {
				metrics.FeedPollErrors.WithLabelValues(f.Name).Inc()
				log.Printf("ERROR [%s]: %v", f.Name, err)
			}
		}(feed)
	}

	wg.Wait()
	log.Println("ingestion complete")
}

// ---------------------------------------------------------------------------
// Per-feed ingestion
// ---------------------------------------------------------------------------

func ingestFeed(ctx context.Context, hazards *postgres.HazardRepo, zones *postgres.ZoneRepo, pub *natsadapter.Publisher, client *http.Client, feed FeedEntry) error {
	start := time.Now()
	log.Printf("[%s] fetching %s", feed.Name, feed.URL)

	doc, err := fetchFeed(client, feed.URL)
	if err != nil {
		return err
	}
	metrics.FeedPollDuration.WithLabelValues(feed.Name).Observe(time.Since(start).Seconds())

	// Skip records with out-of-range positions; one bad row must not sink
	// the batch.
	valid := doc.Hazards[:0]
	for _, h := range doc.Hazards {
		if !h.Position.Valid() {
			log.Printf("[%s] skipping hazard %s: position out of range", feed.Name, h.ID)
			continue
		}
		valid = append(valid, h)
	}

	if len(valid) > 0 {
		if err := hazards.UpsertBatch(ctx, valid); err != nil {
			return fmt.Errorf("upsert hazards: %w", err)
		}
		for _, h := range valid {
			metrics.HazardsIngested.WithLabelValues(string(h.Category)).Inc()
			if pub != nil {
				h := h
				if err := pub.PublishHazard(ctx, &h); err != nil {
					log.Printf("[%s] publish %s: %v", feed.Name, h.ID, err)
				}
			}
		}
	}

	for _, z := range doc.Zones {
		if !z.Centre.Valid() {
			log.Printf("[%s] skipping zone: centre out of range", feed.Name)
			continue
		}
		z := z
		if err := zones.Upsert(ctx, &z); err != nil {
			return fmt.Errorf("upsert zone: %w", err)
		}
	}

	log.Printf("[%s] done: %d hazards, %d zones", feed.Name, len(valid), len(doc.Zones))
	return nil
}

// fetchFeed loads a feed document from an HTTP URL or a local path.
func fetchFeed(client *http.Client, url string) (*FeedDocument, error) {
	var body []byte

	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		resp, err := client.Get(url)
		if err != nil {
			return nil, fmt.Errorf("download: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
	} else {
		var err error
		body, err = os.ReadFile(url)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
	}

	var doc FeedDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return &doc, nil
}
