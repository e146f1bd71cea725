package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/MimeLyc/llsub/internal/subtitle"
	"github.com/MimeLyc/llsub/pkg/file"
	"github.com/MimeLyc/llsub/pkg/icron"
	"github.com/MimeLyc/llsub/pkg/log"
)

const (
	lockFileName = ".llsub.lock"
	// initialLookback is how far back the first scan looks when the
	// schedule fired recently.
	initialLookback = 7 * 24 * time.Hour
)

// WatchOptions configures a Watcher.
type WatchOptions struct {
	Dirs       []string
	CronExpr   string
	Target     language.Tag
	MergeStyle subtitle.MergeStyle
}

// Watcher periodically scans directories for new single-language subtitles
// and runs the pipeline on each.
type Watcher struct {
	pipeline *Pipeline
	opts     WatchOptions
	cron     *cron.Cron

	group singleflight.Group
	now   func() time.Time

	mu          sync.Mutex
	lastTrigger time.Time
}

func NewWatcher(pipeline *Pipeline, c *cron.Cron, opts WatchOptions) (*Watcher, error) {
	if len(opts.Dirs) == 0 {
		return nil, NewError(ErrConfig, "no watch directories configured (WATCH_DIRS)")
	}
	if _, err := icron.Parse(opts.CronExpr); err != nil {
		return nil, WrapError(err, ErrConfig, "invalid watch schedule").WithContext("cron", opts.CronExpr)
	}
	return &Watcher{
		pipeline: pipeline,
		opts:     opts,
		cron:     c,
		now:      time.Now,
	}, nil
}

// Schedule registers the scan with the cron scheduler.
func (w *Watcher) Schedule(ctx context.Context) error {
	log.Info("Watching %d directories on schedule %q", len(w.opts.Dirs), w.opts.CronExpr)

	_, err := w.cron.AddFunc(w.opts.CronExpr, func() {
		if _, err := w.Trigger(ctx); err != nil {
			log.Error("Watch scan failed: %v", err)
		}
	})
	return err
}

// Trigger runs one scan. Concurrent triggers share the scan in flight.
func (w *Watcher) Trigger(ctx context.Context) ([]*Result, error) {
	v, err, shared := w.group.Do("scan", func() (any, error) {
		return w.scan(ctx)
	})
	if shared {
		log.Debug("Joined a watch scan already in progress")
	}
	results, _ := v.([]*Result)
	return results, err
}

func (w *Watcher) scan(ctx context.Context) ([]*Result, error) {
	now := w.now()
	since, err := w.startTime(now)
	if err != nil {
		return nil, err
	}
	log.Info("Searching subtitles modified after %v", since)

	var results []*Result
	for _, dir := range w.opts.Dirs {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		log.Info("Run in dir %s", dir)
		dirResults, err := w.scanDir(ctx, dir, since)
		if err != nil {
			log.Error("Failed to run in dir %s: %v", dir, err)
			continue
		}
		results = append(results, dirResults...)
	}

	w.mu.Lock()
	w.lastTrigger = now
	w.mu.Unlock()
	return results, nil
}

func (w *Watcher) scanDir(ctx context.Context, dir string, since time.Time) ([]*Result, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("directory %s does not exist", dir)
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", dir, err)
	}
	if !locked {
		log.Info("Directory %s is being processed by another llsub, skipping", dir)
		return nil, nil
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("Failed to unlock %s: %v", dir, err)
		}
	}()

	candidates, err := file.FindRecentAfter(dir, since, w.isCandidate)
	if err != nil {
		return nil, fmt.Errorf("failed to find recent subtitles: %w", err)
	}
	log.Info("Found %d subtitles to process in dir %s", len(candidates), dir)

	var results []*Result
	for _, path := range candidates {
		var res *Result
		err := SafeExecute(func() error {
			var runErr error
			res, runErr = w.pipeline.Run(ctx, path, Options{
				Target:     w.opts.Target,
				MergeStyle: w.opts.MergeStyle,
			})
			return runErr
		})
		switch {
		case err == nil:
			results = append(results, res)
		case IsErrorType(err, ErrValidation):
			log.Info("Skipping %s: %v", path, err)
		default:
			log.Error("Failed to process %s: %v", path, err)
		}
	}
	return results, nil
}

// isCandidate accepts name.xx.srt files that are not outputs of the pipeline.
func (w *Watcher) isCandidate(path string) bool {
	code, ok := file.LanguageCode(path)
	if !ok || file.IsDualLanguage(path) {
		return false
	}
	return code != langCode(w.opts.Target)
}

func (w *Watcher) startTime(now time.Time) (time.Time, error) {
	w.mu.Lock()
	last := w.lastTrigger
	w.mu.Unlock()
	if !last.IsZero() {
		return last, nil
	}

	info, err := icron.GetTriggerInfo(w.opts.CronExpr, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get cron schedule: %w", err)
	}
	earliest := now.Add(-initialLookback)
	if info.Last.IsZero() || earliest.Before(info.Last) {
		return earliest, nil
	}
	return info.Last, nil
}
