package service_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/oskarnyberg/veilkeep/internal/veilkeep/service"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/store"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/store/memory"
)

func silentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestEventPruner_DisabledWhenRetentionZero(t *testing.T) {
	es := memory.NewEventStore()
	pruner := service.NewEventPruner(es, service.PrunerConfig{
		RetentionDays: 0,
		IntervalHours: 1,
	}, silentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pruner.Start(ctx)
	// Stop should return immediately without error.
	pruner.Stop()
}

func TestEventPruner_PrunesOldEvents(t *testing.T) {
	es := memory.NewEventStore()
	ctx := context.Background()

	old := store.EventRecord{
		Kind:       store.EventGrantAdded,
		RecordID:   1,
		RecordedAt: time.Now().UTC().AddDate(0, 0, -40),
	}
	if err := es.RecordEvent(ctx, old); err != nil {
		t.Fatalf("insert old: %v", err)
	}

	recent := store.EventRecord{
		Kind:       store.EventGrantAdded,
		RecordID:   2,
		RecordedAt: time.Now().UTC().AddDate(0, 0, -1),
	}
	if err := es.RecordEvent(ctx, recent); err != nil {
		t.Fatalf("insert recent: %v", err)
	}

	// Prune directly via the store (same operation the pruner calls).
	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	deleted, err := es.PruneOlderThan(ctx, cutoff)
	if err != nil {
		t.Fatalf("PruneOlderThan: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 pruned, got %d", deleted)
	}

	evs := es.Events()
	if len(evs) != 1 || evs[0].RecordID != 2 {
		t.Errorf("expected only the recent event to survive, got %+v", evs)
	}
}

func TestEventPruner_StopIsIdempotent(t *testing.T) {
	es := memory.NewEventStore()
	pruner := service.NewEventPruner(es, service.PrunerConfig{
		RetentionDays: 30,
		IntervalHours: 1,
	}, silentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	pruner.Start(ctx)

	cancel()
	// Multiple stops should not panic.
	pruner.Stop()
	pruner.Stop()
}
