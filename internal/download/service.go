package download

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dlbot/dlbot/internal/event"
	"github.com/dlbot/dlbot/internal/logging"
	"github.com/dlbot/dlbot/internal/model"
	"github.com/dlbot/dlbot/internal/platform"
)

// Request describes one content item to download.
type Request struct {
	Account   model.Account
	Kind      model.ContentKind
	ContentID string
	Title     string
	URL       string
}

// fetchSpec is one backend invocation: a single rung of the ladder.
type fetchSpec struct {
	URL            string
	Format         string
	OutputTemplate string
	MergeFormat    string // empty for single-stream rungs
	Cookie         string
}

// progressUpdate carries backend progress into job bookkeeping.
type progressUpdate struct {
	downloadedBytes int64
	totalBytes      int64
	started         time.Time
	etaSec          int
}

// fetchFunc runs one backend download attempt and returns the output path.
// Swapped out in tests.
type fetchFunc func(ctx context.Context, spec fetchSpec, onProgress func(progressUpdate)) (string, error)

// Service owns the download worker pool and the job registry.
type Service struct {
	mu   sync.Mutex
	jobs map[string]*model.DownloadJob

	sem    chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	fetch  fetchFunc
	bus    *event.Bus
	logger *slog.Logger
}

// NewService creates a download service with a bounded worker pool.
func NewService(maxParallel int, bus *event.Bus, logger *slog.Logger) *Service {
	if maxParallel < 1 {
		maxParallel = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		jobs:   make(map[string]*model.DownloadJob),
		sem:    make(chan struct{}, maxParallel),
		ctx:    ctx,
		cancel: cancel,
		fetch:  runFetch,
		bus:    bus,
		logger: logging.WithComponent(logger, "download"),
	}
}

// Dispatch queues a download and returns immediately. The job runs in the
// background as soon as a pool slot frees up; callers never wait on it.
func (s *Service) Dispatch(req Request) *model.DownloadJob {
	job := &model.DownloadJob{
		ID:        uuid.NewString(),
		Account:   req.Account.Name,
		Kind:      req.Kind,
		ContentID: req.ContentID,
		URL:       req.URL,
		Title:     req.Title,
		Status:    model.JobStatusPending,
		ETASec:    -1,
		StartedAt: time.Now(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runJob(job, req)

	return job
}

// Jobs returns a snapshot of all known jobs.
func (s *Service) Jobs() []*model.DownloadJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]*model.DownloadJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// Shutdown cancels all in-flight jobs and waits for the pool to drain, bounded
// by the passed context.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) runJob(job *model.DownloadJob, req Request) {
	defer s.wg.Done()

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-s.ctx.Done():
		s.finishJob(job, model.JobStatusCanceled, "")
		return
	}

	s.setStatus(job, model.JobStatusStarting)

	destDir := req.Account.KindDir(req.Kind)
	if err := platform.CreateDirectoryIfNotExists(destDir); err != nil {
		s.logger.Error("failed to create destination directory",
			logging.String("account", req.Account.Name),
			logging.String("dir", destDir),
			logging.Error(err))
		s.failJob(job, req, err)
		return
	}

	outputTemplate := filepath.Join(destDir, fmt.Sprintf("%s_%s_%%(id)s.%%(ext)s",
		req.Account.Name, platform.SanitizeTitle(req.Title)))

	s.setStatus(job, model.JobStatusDownloading)
	s.logger.Info("starting download",
		logging.String("account", req.Account.Name),
		logging.String("title", req.Title),
		logging.String("kind", req.Kind.String()))

	rungs := Ladder(req.Account.Platform)
	var lastErr error
	for i, rung := range rungs {
		spec := fetchSpec{
			URL:            req.URL,
			Format:         rung.Format,
			OutputTemplate: outputTemplate,
			Cookie:         req.Account.BilibiliCookie,
		}
		if rung.Merge {
			spec.MergeFormat = mergeContainer
		}

		outputPath, err := s.fetch(s.ctx, spec, func(up progressUpdate) {
			s.updateProgress(job, up)
		})
		if err == nil {
			s.completeJob(job, req, outputPath)
			return
		}
		if s.ctx.Err() != nil {
			s.finishJob(job, model.JobStatusCanceled, err.Error())
			return
		}

		switch Classify(req.Account.Platform, err) {
		case FailureScheduled:
			// Nothing downloadable yet. Not an error; do not try lower rungs.
			s.logger.Info("content not downloadable yet, skipping",
				logging.String("account", req.Account.Name),
				logging.String("title", req.Title),
				logging.Error(err))
			s.finishJob(job, model.JobStatusSkipped, "")
			return
		case FailureQuality:
			s.logger.Info("format unavailable, falling back",
				logging.String("account", req.Account.Name),
				logging.String("format", rung.Format),
				logging.Int("rung", i+1),
				logging.Error(err))
		default:
			s.logger.Warn("download attempt failed, trying next format",
				logging.String("account", req.Account.Name),
				logging.String("format", rung.Format),
				logging.Int("rung", i+1),
				logging.Error(err))
		}
		lastErr = err
	}

	s.failJob(job, req, lastErr)
}

func (s *Service) completeJob(job *model.DownloadJob, req Request, outputPath string) {
	s.mu.Lock()
	job.Status = model.JobStatusCompleted
	job.Progress = 1.0
	job.Percent = 100
	job.OutputPath = outputPath
	job.FinishedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("completed download",
		logging.String("account", req.Account.Name),
		logging.String("title", req.Title),
		logging.String("path", outputPath))

	if s.bus != nil {
		s.bus.Publish(event.Event{
			Type:      event.TypeDownloadComplete,
			Account:   req.Account.Name,
			ContentID: req.ContentID,
			Title:     req.Title,
			URL:       req.URL,
		})
	}
}

func (s *Service) failJob(job *model.DownloadJob, req Request, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	s.finishJob(job, model.JobStatusError, msg)

	s.logger.Error("download failed after exhausting all formats",
		logging.String("account", req.Account.Name),
		logging.String("title", req.Title),
		logging.Error(err))

	if s.bus != nil {
		s.bus.Publish(event.Event{
			Type:      event.TypeDownloadFailed,
			Account:   req.Account.Name,
			ContentID: req.ContentID,
			Title:     req.Title,
			URL:       req.URL,
			Error:     msg,
		})
	}
}

func (s *Service) finishJob(job *model.DownloadJob, status model.JobStatus, lastError string) {
	s.mu.Lock()
	job.Status = status
	job.LastError = lastError
	job.FinishedAt = time.Now()
	s.mu.Unlock()
}

func (s *Service) setStatus(job *model.DownloadJob, status model.JobStatus) {
	s.mu.Lock()
	job.Status = status
	s.mu.Unlock()
}

// updateProgress folds backend progress into job fields and debug-logs at
// ten-percent steps.
func (s *Service) updateProgress(job *model.DownloadJob, up progressUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevDecile := job.Percent / 10

	if up.totalBytes > 0 {
		percent := float64(up.downloadedBytes) / float64(up.totalBytes) * 100
		job.Percent = int(percent)
		job.Progress = percent / 100.0
	}

	if !up.started.IsZero() {
		elapsed := time.Since(up.started)
		if elapsed.Seconds() > 0 {
			bytesPerSecond := float64(up.downloadedBytes) / elapsed.Seconds()
			job.Speed = fmt.Sprintf("%.1fMB/s", bytesPerSecond/1024/1024)
		}
	}

	if up.etaSec > 0 {
		job.ETASec = up.etaSec
	}

	if job.Percent/10 != prevDecile {
		s.logger.Debug("download progress",
			logging.String("title", job.GetDisplayTitle()),
			logging.Int("percent", job.Percent),
			logging.String("speed", job.Speed),
			logging.String("eta", job.GetETAString()))
	}
}
