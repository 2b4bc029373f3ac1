package bootstrap

import (
	"context"
	"testing"

	"github.com/leadwire/leadwire-platform/internal/activities"
	appconfig "github.com/leadwire/leadwire-platform/internal/config"
	"github.com/leadwire/leadwire-platform/internal/events"
	"github.com/leadwire/leadwire-platform/internal/leads"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

func TestBuildRedisClientNoAddrReturnsNil(t *testing.T) {
	cfg := &appconfig.Config{}

	if client := BuildRedisClient(context.Background(), cfg, logging.New("error"), false); client != nil {
		t.Fatalf("expected nil client without REDIS_ADDR")
	}
}

func TestBuildRedisClientNilConfig(t *testing.T) {
	if client := BuildRedisClient(context.Background(), nil, nil, false); client != nil {
		t.Fatalf("expected nil client for nil config")
	}
}

func TestBuildPgxPoolNoDatabaseURL(t *testing.T) {
	pool, err := BuildPgxPool(context.Background(), &appconfig.Config{}, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool != nil {
		t.Fatalf("expected nil pool without DATABASE_URL")
	}
}

func TestBuildLeadStoreFallsBackToMemory(t *testing.T) {
	store := BuildLeadStore(nil, logging.New("error"))
	if _, ok := store.(*leads.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestBuildActivityStoreFallsBackToMemory(t *testing.T) {
	store := BuildActivityStore(nil, logging.New("error"))
	if _, ok := store.(*activities.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestBuildProcessedTrackerFallsBackToMemory(t *testing.T) {
	tracker := BuildProcessedTracker(nil, logging.New("error"))
	if _, ok := tracker.(*events.MemoryProcessedStore); !ok {
		t.Fatalf("expected memory tracker, got %T", tracker)
	}
}

func TestBuildMessageIndexDefaultsToMemory(t *testing.T) {
	index := BuildMessageIndex(&appconfig.Config{}, nil, nil, logging.New("error"))
	if _, ok := index.(*activities.MemoryIndex); !ok {
		t.Fatalf("expected memory index, got %T", index)
	}
}

func TestBuildMessageIndexPostgresWithoutPool(t *testing.T) {
	cfg := &appconfig.Config{MessageIndexBackend: "postgres"}

	index := BuildMessageIndex(cfg, nil, nil, logging.New("error"))
	if _, ok := index.(*activities.MemoryIndex); !ok {
		t.Fatalf("expected memory fallback, got %T", index)
	}
}

func TestBuildMessageIndexDynamoWithoutClient(t *testing.T) {
	cfg := &appconfig.Config{MessageIndexBackend: "dynamodb", MessageIndexTable: "idx"}

	index := BuildMessageIndex(cfg, nil, nil, logging.New("error"))
	if _, ok := index.(*activities.MemoryIndex); !ok {
		t.Fatalf("expected memory fallback, got %T", index)
	}
}

func TestBuildArchiveStoreDisabledWithoutBucket(t *testing.T) {
	if store := BuildArchiveStore(&appconfig.Config{}, nil, logging.New("error")); store != nil {
		t.Fatalf("expected nil archive store without bucket")
	}
}
