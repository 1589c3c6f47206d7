package main

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gofrs/flock"

	"reelforge/internal/services/factory"
	"reelforge/internal/testsupport"
)

func TestPipelineStartWatchRecordsSession(t *testing.T) {
	env := setupCLITestEnv(t)
	env.svc.OK(http.MethodPost, "/pipeline/start", map[string]string{"session_id": "s1"})

	var mu sync.Mutex
	polls := 0
	env.svc.Handle(http.MethodGet, "/pipeline/status/s1", func(*http.Request, []byte) testsupport.Envelope {
		mu.Lock()
		defer mu.Unlock()
		polls++
		status := factory.PipelineStatus{Status: "running", Phase: "rendering", Progress: 80, Topic: "ocean", Message: "Rendering video"}
		if polls > 1 {
			status = factory.PipelineStatus{Status: "completed", Phase: "done", Progress: 100, Topic: "ocean", Output: "/out/ocean.mp4"}
		}
		return testsupport.Envelope{Status: "ok", Data: status}
	})

	out, err := env.run(t, "pipeline", "start", "ocean", "--watch")
	if err != nil {
		t.Fatalf("pipeline start --watch: %v", err)
	}
	requireContains(t, out, "Session started: s1")
	requireContains(t, out, "Rendering video")
	requireContains(t, out, "Output: /out/ocean.mp4")
	if got := env.svc.Hits(http.MethodGet, "/pipeline/status/s1"); got != 2 {
		t.Fatalf("expected polling to stop after the completed snapshot, got %d fetches", got)
	}

	out, err = env.run(t, "--format", "json", "pipeline", "list", "--local")
	if err != nil {
		t.Fatalf("pipeline list --local: %v", err)
	}
	var records []struct {
		SessionID string                 `json:"session_id"`
		Snapshot  factory.PipelineStatus `json:"snapshot"`
		Polls     int                    `json:"polls"`
	}
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode records: %v\n%s", err, out)
	}
	if len(records) != 1 || records[0].SessionID != "s1" || records[0].Snapshot.Status != "completed" || records[0].Polls != 2 {
		t.Fatalf("unexpected recorded sessions %+v", records)
	}
}

func TestPipelineWatchReportsFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	env.svc.OK(http.MethodGet, "/pipeline/status/bad", factory.PipelineStatus{Status: "error", Phase: "error", Message: "TTS engine crashed"})

	_, err := env.run(t, "pipeline", "watch", "bad")
	if err == nil {
		t.Fatal("expected failed session to return an error")
	}
	requireContains(t, err.Error(), "TTS engine crashed")
}

func TestPipelineWatchRefusesSecondWatcher(t *testing.T) {
	env := setupCLITestEnv(t)
	env.svc.OK(http.MethodGet, "/pipeline/status/s1", factory.PipelineStatus{Status: "completed", Phase: "done", Progress: 100})

	lock := flock.New(filepath.Join(env.stateDir, "watch.lock"))
	if _, err := env.run(t, "config", "validate"); err != nil {
		t.Fatalf("prepare state dir: %v", err)
	}
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("take lock: %v %v", ok, err)
	}
	defer lock.Unlock()

	if _, err := env.run(t, "pipeline", "watch", "s1"); err == nil {
		t.Fatal("expected watch to refuse while another watcher holds the lock")
	}
	if env.svc.Hits(http.MethodGet, "/pipeline/status/s1") != 0 {
		t.Fatal("second watcher must not poll")
	}
}

func TestPipelineListSortsNewestFirst(t *testing.T) {
	env := setupCLITestEnv(t)
	env.svc.OK(http.MethodGet, "/pipeline/list", map[string]any{"sessions": map[string]factory.PipelineStatus{
		"old": {Status: "completed", Phase: "done", StartedAt: "2026-01-01T10:00:00"},
		"new": {Status: "running", Phase: "tts", StartedAt: "2026-01-02T10:00:00"},
	}})

	out, err := env.run(t, "--format", "json", "pipeline", "list")
	if err != nil {
		t.Fatalf("pipeline list: %v", err)
	}
	var sessions []struct {
		ID string `json:"session_id"`
	}
	if err := json.Unmarshal([]byte(out), &sessions); err != nil {
		t.Fatalf("decode sessions: %v\n%s", err, out)
	}
	if len(sessions) != 2 || sessions[0].ID != "new" {
		t.Fatalf("expected newest first, got %+v", sessions)
	}
}
