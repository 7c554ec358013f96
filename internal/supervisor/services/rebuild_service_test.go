// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/inspirehub/feedengine/internal/recommend"
)

type fakeRebuildEngine struct {
	rebuilds atomic.Int64
	err      error
}

func (f *fakeRebuildEngine) Rebuild(ctx context.Context) error {
	f.rebuilds.Add(1)
	return f.err
}

func (f *fakeRebuildEngine) Status() recommend.Status {
	return recommend.Status{Ready: true, SnapshotVersion: int(f.rebuilds.Load())}
}

func TestRebuildServiceStartupAndTicks(t *testing.T) {
	engine := &fakeRebuildEngine{}
	svc := NewRebuildService(engine, RebuildServiceConfig{
		OnStartup: true,
		Interval:  20 * time.Millisecond,
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for engine.rebuilds.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("rebuilds = %d, want at least 3", engine.rebuilds.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}

func TestRebuildServiceKeepsGoingAfterFailure(t *testing.T) {
	engine := &fakeRebuildEngine{err: errors.New("load failed")}
	svc := NewRebuildService(engine, RebuildServiceConfig{
		OnStartup: true,
		Interval:  10 * time.Millisecond,
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for engine.rebuilds.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("rebuild loop stopped after a failure")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestRebuildServiceString(t *testing.T) {
	svc := NewRebuildService(&fakeRebuildEngine{}, RebuildServiceConfig{}, zerolog.Nop())
	if svc.String() != "rebuild-service" {
		t.Errorf("String() = %q", svc.String())
	}
}
