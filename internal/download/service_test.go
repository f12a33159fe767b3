package download

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dlbot/dlbot/internal/event"
	"github.com/dlbot/dlbot/internal/logging"
	"github.com/dlbot/dlbot/internal/model"
)

func testAccount(dir string, p model.Platform) model.Account {
	return model.Account{
		Name:        "tester",
		Platform:    p,
		DownloadDir: dir,
	}
}

func testRequest(dir string, p model.Platform) Request {
	return Request{
		Account:   testAccount(dir, p),
		Kind:      model.KindVideos,
		ContentID: "abc123",
		Title:     "Some Title",
		URL:       "https://example.com/watch?v=abc123",
	}
}

// waitFinished polls until the job reaches a terminal state.
func waitFinished(t *testing.T, job *model.DownloadJob, svc *Service) model.JobStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		svc.mu.Lock()
		status := job.Status
		svc.mu.Unlock()
		if status.IsFinished() {
			return status
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return ""
}

func TestService_SuccessFirstRung(t *testing.T) {
	bus := event.NewBus(8)
	svc := NewService(1, bus, logging.NewNop())

	var mu sync.Mutex
	var formats []string
	var gotTemplate string
	svc.fetch = func(ctx context.Context, spec fetchSpec, onProgress func(progressUpdate)) (string, error) {
		mu.Lock()
		formats = append(formats, spec.Format)
		gotTemplate = spec.OutputTemplate
		mu.Unlock()
		return "/downloads/tester/tester_Some Title_abc123.mp4", nil
	}

	dir := t.TempDir()
	job := svc.Dispatch(testRequest(dir, model.PlatformYouTube))

	if status := waitFinished(t, job, svc); status != model.JobStatusCompleted {
		t.Fatalf("Expected completed job, got %s", status)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(formats) != 1 || formats[0] != "best[ext=mp4]" {
		t.Errorf("Expected single attempt with first rung, got %v", formats)
	}

	wantPrefix := filepath.Join(dir, "tester", "tester_Some Title_")
	if !strings.HasPrefix(gotTemplate, wantPrefix) {
		t.Errorf("Expected output template under account dir, got %s", gotTemplate)
	}
	if !strings.HasSuffix(gotTemplate, "_%(id)s.%(ext)s") {
		t.Errorf("Expected id/ext placeholders in template, got %s", gotTemplate)
	}

	select {
	case e := <-bus.Events():
		if e.Type != event.TypeDownloadComplete || e.Account != "tester" || e.Title != "Some Title" {
			t.Errorf("Unexpected event %+v", e)
		}
	case <-time.After(time.Second):
		t.Error("Expected a download complete event")
	}
}

func TestService_LadderExhaustionOnPremiumErrors(t *testing.T) {
	bus := event.NewBus(8)
	svc := NewService(1, bus, logging.NewNop())

	var mu sync.Mutex
	var formats []string
	svc.fetch = func(ctx context.Context, spec fetchSpec, onProgress func(progressUpdate)) (string, error) {
		mu.Lock()
		formats = append(formats, spec.Format)
		mu.Unlock()
		return "", errors.New("ERROR: Requested format is not available, premium membership required")
	}

	job := svc.Dispatch(testRequest(t.TempDir(), model.PlatformBilibili))

	if status := waitFinished(t, job, svc); status != model.JobStatusError {
		t.Fatalf("Expected error status after exhaustion, got %s", status)
	}

	want := []string{
		"bestvideo[height<=2160]+bestaudio",
		"bestvideo[height<=1080]+bestaudio",
		"bestvideo[height<=720]+bestaudio",
		"bestvideo[height<=480]+bestaudio",
		"bestaudio",
		"best",
	}
	mu.Lock()
	defer mu.Unlock()
	if len(formats) != len(want) {
		t.Fatalf("Expected all %d rungs to be tried, got %d: %v", len(want), len(formats), formats)
	}
	for i := range want {
		if formats[i] != want[i] {
			t.Errorf("Rung %d: expected %s, got %s", i, want[i], formats[i])
		}
	}

	select {
	case e := <-bus.Events():
		if e.Type != event.TypeDownloadFailed {
			t.Errorf("Expected download failed event, got %s", e.Type)
		}
		if e.Error == "" {
			t.Error("Expected failure event to carry the error message")
		}
	case <-time.After(time.Second):
		t.Error("Expected a download failed event")
	}
}

func TestService_ScheduledAbortsLadder(t *testing.T) {
	bus := event.NewBus(8)
	svc := NewService(1, bus, logging.NewNop())

	var mu sync.Mutex
	attempts := 0
	svc.fetch = func(ctx context.Context, spec fetchSpec, onProgress func(progressUpdate)) (string, error) {
		mu.Lock()
		attempts++
		mu.Unlock()
		return "", errors.New("ERROR: This live event will begin in 2 hours")
	}

	job := svc.Dispatch(testRequest(t.TempDir(), model.PlatformYouTube))

	if status := waitFinished(t, job, svc); status != model.JobStatusSkipped {
		t.Fatalf("Expected skipped status, got %s", status)
	}

	mu.Lock()
	if attempts != 1 {
		t.Errorf("Expected ladder to abort after first attempt, got %d attempts", attempts)
	}
	mu.Unlock()

	// A skip is silent: no completion or failure event.
	select {
	case e := <-bus.Events():
		t.Errorf("Expected no event for a scheduled skip, got %s", e.Type)
	case <-time.After(50 * time.Millisecond):
	}

	if job.LastError != "" {
		t.Errorf("Expected no recorded error for a skip, got %q", job.LastError)
	}
}

func TestService_GenericErrorsAlsoFallBack(t *testing.T) {
	svc := NewService(1, nil, logging.NewNop())

	var mu sync.Mutex
	attempts := 0
	svc.fetch = func(ctx context.Context, spec fetchSpec, onProgress func(progressUpdate)) (string, error) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 3 {
			return "", errors.New("ERROR: unexpected upstream failure")
		}
		return "/out.mp4", nil
	}

	job := svc.Dispatch(testRequest(t.TempDir(), model.PlatformYouTube))

	if status := waitFinished(t, job, svc); status != model.JobStatusCompleted {
		t.Fatalf("Expected completion on third rung, got %s", status)
	}
	mu.Lock()
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	mu.Unlock()
}

func TestService_MergeOnlyForMultiStreamRungs(t *testing.T) {
	svc := NewService(1, nil, logging.NewNop())

	var mu sync.Mutex
	merges := map[string]string{}
	svc.fetch = func(ctx context.Context, spec fetchSpec, onProgress func(progressUpdate)) (string, error) {
		mu.Lock()
		merges[spec.Format] = spec.MergeFormat
		mu.Unlock()
		return "", errors.New("some failure")
	}

	job := svc.Dispatch(testRequest(t.TempDir(), model.PlatformYouTube))
	waitFinished(t, job, svc)

	mu.Lock()
	defer mu.Unlock()
	if merges["best[ext=mp4]"] != "" {
		t.Error("Expected no merge for the progressive rung")
	}
	if merges["bestvideo+bestaudio"] != "mp4" {
		t.Error("Expected mp4 merge for the split rung")
	}
	if merges["best"] != "" {
		t.Error("Expected no merge for the catch-all rung")
	}
}

func TestService_ShutdownCancelsPending(t *testing.T) {
	svc := NewService(1, nil, logging.NewNop())

	release := make(chan struct{})
	svc.fetch = func(ctx context.Context, spec fetchSpec, onProgress func(progressUpdate)) (string, error) {
		select {
		case <-release:
			return "/out.mp4", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	dir := t.TempDir()
	running := svc.Dispatch(testRequest(dir, model.PlatformYouTube))
	queued := svc.Dispatch(testRequest(dir, model.PlatformYouTube))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := svc.Shutdown(ctx); err != nil {
		t.Fatalf("Expected clean shutdown, got %v", err)
	}
	close(release)

	if status := waitFinished(t, running, svc); status != model.JobStatusCanceled {
		t.Errorf("Expected running job to be canceled, got %s", status)
	}
	if status := waitFinished(t, queued, svc); status != model.JobStatusCanceled {
		t.Errorf("Expected queued job to be canceled, got %s", status)
	}
}

func TestService_Jobs(t *testing.T) {
	svc := NewService(2, nil, logging.NewNop())
	svc.fetch = func(ctx context.Context, spec fetchSpec, onProgress func(progressUpdate)) (string, error) {
		return "/out.mp4", nil
	}

	dir := t.TempDir()
	a := svc.Dispatch(testRequest(dir, model.PlatformYouTube))
	b := svc.Dispatch(testRequest(dir, model.PlatformYouTube))
	waitFinished(t, a, svc)
	waitFinished(t, b, svc)

	if got := len(svc.Jobs()); got != 2 {
		t.Errorf("Expected 2 jobs in registry, got %d", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		platform model.Platform
		msg      string
		expected FailureKind
	}{
		{"scheduled live", model.PlatformYouTube, "ERROR: This live event will begin in 15 minutes", FailureScheduled},
		{"premiere", model.PlatformYouTube, "Premieres in 2 hours", FailureScheduled},
		{"offline room", model.PlatformBilibili, "ERROR: the room is offline", FailureScheduled},
		{"format missing any platform", model.PlatformYouTube, "Requested format is not available", FailureQuality},
		{"premium on bilibili", model.PlatformBilibili, "this video requires 大会员", FailureQuality},
		{"premium marker ignored on youtube", model.PlatformYouTube, "premium required", FailureGeneric},
		{"generic", model.PlatformBilibili, "connection reset by peer", FailureGeneric},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.platform, errors.New(test.msg)); got != test.expected {
				t.Errorf("Classify(%s, %q) = %v, expected %v", test.platform, test.msg, got, test.expected)
			}
		})
	}
}

func TestLadder(t *testing.T) {
	bl := Ladder(model.PlatformBilibili)
	if len(bl) != 6 {
		t.Fatalf("Expected 6 bilibili rungs, got %d", len(bl))
	}
	if !bl[0].Merge || bl[len(bl)-1].Merge {
		t.Error("Expected split rungs to merge and the catch-all not to")
	}
	if bl[len(bl)-2].Format != "bestaudio" {
		t.Errorf("Expected audio-only rung before the catch-all, got %s", bl[len(bl)-2].Format)
	}

	yl := Ladder(model.PlatformYouTube)
	if len(yl) != 3 {
		t.Fatalf("Expected 3 youtube rungs, got %d", len(yl))
	}
}

func TestService_ProgressLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Options{Level: "debug", Output: &buf})
	svc := NewService(1, nil, logger)

	job := &model.DownloadJob{ID: "job1", Title: "Some Title", ETASec: -1}
	svc.updateProgress(job, progressUpdate{
		downloadedBytes: 50,
		totalBytes:      100,
		started:         time.Now().Add(-2 * time.Second),
		etaSec:          95,
	})

	out := buf.String()
	if !strings.Contains(out, "download progress") {
		t.Fatalf("Expected a progress line at the 50%% step, got %q", out)
	}
	if !strings.Contains(out, "Some Title") {
		t.Errorf("Expected the display title in the progress line, got %q", out)
	}
	if !strings.Contains(out, "01:35") {
		t.Errorf("Expected formatted ETA 01:35, got %q", out)
	}

	// Sub-decile movement stays quiet.
	buf.Reset()
	svc.updateProgress(job, progressUpdate{downloadedBytes: 55, totalBytes: 100})
	if buf.Len() != 0 {
		t.Errorf("Expected no log within the same ten-percent step, got %q", buf.String())
	}
}
