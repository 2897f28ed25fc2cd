package service_test

import (
	"bytes"
	"context"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"figmatext/internal/service"
)

// ── syncGuard ──────────────────────────────────────────────

func TestSyncGuard_OnePerFileKey(t *testing.T) {
	var g service.SyncGuard

	if !g.Acquire("file-1") {
		t.Fatal("expected first sync of file-1 to start")
	}
	if g.Acquire("file-1") {
		t.Fatal("expected second sync of file-1 to be rejected")
	}
	if !g.Acquire("file-2") {
		t.Fatal("expected sync of file-2 to start while file-1 runs")
	}
	g.Release("file-1")
	g.Release("file-2")

	if !g.Acquire("file-1") {
		t.Fatal("expected file-1 to be free again after unlock")
	}
	g.Release("file-1")
}

func TestSyncGuard_ConcurrentAcquire(t *testing.T) {
	var g service.SyncGuard
	var wg sync.WaitGroup
	var mu sync.Mutex
	won := 0

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Acquire("FILE") {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if won != 1 {
		t.Errorf("expected exactly one winner, got %d", won)
	}
	g.Release("FILE")
}

func TestSyncGuard_Wait(t *testing.T) {
	var g service.SyncGuard
	if !g.Acquire("file-a") {
		t.Fatal("expected lock to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.Wait(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Release("file-a")
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Wait timed out")
	}
}

func TestSyncGuard_WaitHonorsContext(t *testing.T) {
	var g service.SyncGuard
	g.Acquire("stuck")
	defer g.Release("stuck")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	g.Wait(ctx)
	if time.Since(start) > time.Second {
		t.Error("Wait ignored the context deadline")
	}
}

func TestSyncGuard_Running(t *testing.T) {
	var g service.SyncGuard
	g.Acquire("b")
	g.Acquire("a")
	if got := strings.Join(g.Running(), ","); got != "a,b" {
		t.Errorf("Running() = %q, want a,b", got)
	}
	g.Release("a")
	g.Release("a")
	if got := strings.Join(g.Running(), ","); got != "b" {
		t.Errorf("Running() after release = %q, want b", got)
	}
	g.Release("b")
}

// ── Emitters ───────────────────────────────────────────────

func TestMockEmitter_Snapshot(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, service.EventSyncCompleted, map[string]any{"fileKey": "F"})
	events := m.Snapshot()
	m.Emit(ctx, service.EventSyncFailed, nil)

	if len(events) != 1 || events[0].Event != service.EventSyncCompleted {
		t.Errorf("unexpected snapshot %+v", events)
	}
	if got := m.Snapshot(); len(got) != 2 || got[1].Event != service.EventSyncFailed {
		t.Errorf("unexpected events %+v", got)
	}
}

func TestLogEmitter(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	service.LogEmitter{}.Emit(context.Background(), service.EventSyncFailed, map[string]string{"fileKey": "F"})
	if !strings.Contains(buf.String(), "event sync:failed") {
		t.Errorf("unexpected log output %q", buf.String())
	}
}
