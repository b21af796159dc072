package retention

import (
	"context"
	"testing"

	"palisade-hq/palisade/pkg/usage/storage"
)

func TestSchedulerStartStop(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	pruner := NewPruner(store, &Config{
		RetentionDays: 30,
		PruneSchedule: "0 3 * * *",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pruner.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !pruner.scheduler.IsRunning() {
		t.Fatal("expected scheduler to be running")
	}
	if pruner.NextPruning() == nil {
		t.Fatal("expected a next pruning time")
	}

	pruner.Stop()
	if pruner.scheduler.IsRunning() {
		t.Fatal("expected scheduler to be stopped")
	}
}

func TestSchedulerEmptyScheduleIsNoop(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	pruner := NewPruner(store, &Config{PruneSchedule: ""})
	if err := pruner.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if pruner.scheduler.IsRunning() {
		t.Fatal("expected scheduler to remain stopped with empty schedule")
	}
}

func TestSchedulerRejectsInvalidExpression(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	pruner := NewPruner(store, &Config{PruneSchedule: "not a cron"})
	if err := pruner.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}
