package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path"
	"sync"
	"time"
)

// VideoAssetUpdater persists ingestion status updates for videos.
type VideoAssetUpdater interface {
	MarkAssetReady(ctx context.Context, videoID, location string, durationSecs float64, size int64) error
	MarkAssetFailed(ctx context.Context, videoID string) error
}

// ObjectStorage persists asset bytes and returns the public location.
type ObjectStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// IngestJob asks the ingestor to move an uploaded temp file into durable
// storage and record its media metadata.
type IngestJob struct {
	VideoID     string
	LocalPath   string
	ContentName string
}

// AssetIngestorConfig controls the concurrency characteristics of the ingestor.
type AssetIngestorConfig struct {
	QueueSize int
	Workers   int
}

// AssetIngestor asynchronously probes and uploads published video files.
// Publish handlers spill the multipart upload to a temp file and enqueue it
// here; the video row stays in the pending state until a worker finishes.
type AssetIngestor struct {
	prober  Prober
	storage ObjectStorage
	updater VideoAssetUpdater
	logger  *slog.Logger

	jobs   chan IngestJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

var errIngestorClosed = errors.New("asset ingestor closed")

// NewAssetIngestor constructs a background worker pool that persists assets.
func NewAssetIngestor(prober Prober, storage ObjectStorage, updater VideoAssetUpdater, cfg AssetIngestorConfig, logger *slog.Logger) *AssetIngestor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	ing := &AssetIngestor{
		prober:  prober,
		storage: storage,
		updater: updater,
		logger:  logger,
		jobs:    make(chan IngestJob, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	ing.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go ing.worker()
	}

	return ing
}

// Enqueue schedules ingestion for the supplied job.
func (i *AssetIngestor) Enqueue(ctx context.Context, job IngestJob) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return errIngestorClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return errIngestorClosed
	case i.jobs <- job:
		return nil
	}
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (i *AssetIngestor) Shutdown(ctx context.Context) error {
	i.once.Do(func() {
		i.cancel()
		close(i.jobs)
	})

	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (i *AssetIngestor) worker() {
	defer i.wg.Done()

	for {
		select {
		case <-i.ctx.Done():
			return
		case job, ok := <-i.jobs:
			if !ok {
				return
			}
			i.handleJob(job)
		}
	}
}

func (i *AssetIngestor) handleJob(job IngestJob) {
	if i.prober == nil || i.storage == nil || i.updater == nil {
		i.logger.Error("asset ingestor missing dependencies",
			"hasProber", i.prober != nil, "hasStorage", i.storage != nil, "hasUpdater", i.updater != nil)
		return
	}

	// The temp upload is removed whether or not ingestion succeeds.
	defer func() {
		if err := os.Remove(job.LocalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			i.logger.Warn("remove temp upload", "videoId", job.VideoID, "path", job.LocalPath, "error", err)
		}
	}()

	jobCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	probe, err := i.prober.Probe(jobCtx, job.LocalPath)
	if err != nil {
		i.logger.Error("probe uploaded video", "videoId", job.VideoID, "error", err)
		i.recordFailure(job.VideoID)
		return
	}

	file, err := os.Open(job.LocalPath)
	if err != nil {
		i.logger.Error("open uploaded video", "videoId", job.VideoID, "error", err)
		i.recordFailure(job.VideoID)
		return
	}
	defer file.Close()

	location, err := i.storage.Save(jobCtx, path.Join(job.VideoID, job.ContentName), file)
	if err != nil {
		i.logger.Error("upload video asset", "videoId", job.VideoID, "error", err)
		i.recordFailure(job.VideoID)
		return
	}

	if err := i.recordSuccess(job.VideoID, location, probe.DurationSecs, probe.Size); err != nil {
		i.logger.Error("mark asset ready", "videoId", job.VideoID, "error", err)
		i.recordFailure(job.VideoID)
	}
}

func (i *AssetIngestor) recordFailure(videoID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := i.updater.MarkAssetFailed(ctx, videoID); err != nil {
		i.logger.Error("record asset failure", "videoId", videoID, "error", err)
	}
}

func (i *AssetIngestor) recordSuccess(videoID, location string, durationSecs float64, size int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return i.updater.MarkAssetReady(ctx, videoID, location, durationSecs, size)
}
