package profile

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"github.com/HendryAvila/quill/internal/voice"
)

// Rebuilder reads the corpus under Dir, builds a profile and saves it.
type Rebuilder struct {
	Dir     string
	Store   voice.ProfileStore
	Builder *Builder
	Logger  *slog.Logger
}

// Run performs one rebuild.
func (r *Rebuilder) Run(ctx context.Context) (*voice.Profile, error) {
	samples, err := ReadCorpus(r.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	p, err := r.Builder.Build(ctx, samples)
	if err != nil {
		return nil, fmt.Errorf("building profile: %w", err)
	}
	if err := r.Store.Save(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Rebuilder) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// runLogged is Run for background triggers: failures are logged, not
// returned.
func (r *Rebuilder) runLogged(ctx context.Context, trigger string) {
	p, err := r.Run(ctx)
	if err != nil {
		r.logger().Warn("profile: rebuild failed", "trigger", trigger, "err", err)
		return
	}
	r.logger().Info("profile: rebuilt", "trigger", trigger, "words", p.SourceStats.TotalWords, "path", r.Store.Path)
}

// --- Scheduled rebuilds ---

// Schedule rebuilds on a standard 5-field cron expression until ctx is
// done. It returns immediately after validating expr.
func (r *Rebuilder) Schedule(ctx context.Context, expr string) error {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	if sched.Next(timeNow()).IsZero() {
		return fmt.Errorf("invalid schedule %q: never fires", expr)
	}
	r.logger().Info("profile: rebuild scheduled", "cron", expr)

	go func() {
		for {
			now := timeNow()
			next := sched.Next(now)
			if next.IsZero() {
				r.logger().Warn("profile: schedule has no further runs", "cron", expr)
				return
			}
			r.logger().Debug("profile: next rebuild", "at", next.Format(time.RFC3339))

			timer := time.NewTimer(next.Sub(now))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				r.runLogged(ctx, "schedule")
			}
		}
	}()
	return nil
}

// timeNow is replaced in tests.
var timeNow = time.Now

// --- Watched rebuilds ---

// watchDebounce collapses bursts of editor writes into one rebuild.
const watchDebounce = 500 * time.Millisecond

// Watch rebuilds whenever a file under Dir or one of its source
// subdirectories changes, until ctx is done. Subdirectories created after
// Watch starts are not picked up.
func (r *Rebuilder) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(r.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", r.Dir, err)
	}
	for _, sd := range sourceDirs {
		// Missing source dirs are fine; ReadCorpus skips them too.
		_ = watcher.Add(filepath.Join(r.Dir, sd.dir))
	}
	r.logger().Info("profile: watching corpus", "dir", r.Dir)

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			debounce.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger().Warn("profile: watcher error", "err", err)
		case <-debounce.C:
			r.runLogged(ctx, "watch")
		}
	}
}
