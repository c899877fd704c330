package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/romariotrain/meeting-pipeline/internal/meeting/models"
)

const (
	DoneDir   = "done"
	FailedDir = "failed"
)

var audioExtensions = []string{".wav", ".mp3", ".m4a", ".ogg", ".flac", ".webm", ".mp4", ".aac"}

type Ingester interface {
	Ingest(ctx context.Context, audio []byte, filenameHint string) (models.MeetingRecord, error)
}

type Config struct {
	Dir           string
	MaxConcurrent int
	// SettleDelay gives writers time to finish before a new file is read.
	SettleDelay time.Duration
	Logger      zerolog.Logger
}

// Watcher ingests every audio file dropped into an inbox directory and moves
// it to done/ or failed/ afterwards.
type Watcher struct {
	dir         string
	ingester    Ingester
	logger      zerolog.Logger
	fsw         *fsnotify.Watcher
	settleDelay time.Duration
	semaphore   chan struct{}
	wg          sync.WaitGroup

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func New(cfg Config, ing Ingester) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, errors.New("watch dir is required")
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 2
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = 500 * time.Millisecond
	}

	for _, d := range []string{cfg.Dir, filepath.Join(cfg.Dir, DoneDir), filepath.Join(cfg.Dir, FailedDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create watch dir: %w", err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(cfg.Dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	return &Watcher{
		dir:         cfg.Dir,
		ingester:    ing,
		logger:      cfg.Logger.With().Str("component", "inbox_watcher").Str("dir", cfg.Dir).Logger(),
		fsw:         fsw,
		settleDelay: cfg.SettleDelay,
		semaphore:   make(chan struct{}, cfg.MaxConcurrent),
		inFlight:    make(map[string]struct{}),
	}, nil
}

// Start processes files already waiting in the inbox, then handles new ones
// until ctx is cancelled. In-progress ingests are awaited before returning.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info().Int("max_concurrent", cap(w.semaphore)).Msg("inbox watcher started")
	defer w.wg.Wait()

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("scan inbox: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := w.dispatch(ctx, filepath.Join(w.dir, e.Name()), false); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("waiting for in-flight ingests")
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if err := w.dispatch(ctx, event.Name, true); err != nil {
				return err
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

func (w *Watcher) dispatch(ctx context.Context, path string, settle bool) error {
	if !isAudioFile(path) {
		w.logger.Debug().Str("file", path).Msg("ignoring non-audio file")
		return nil
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return nil
	}

	w.mu.Lock()
	if _, busy := w.inFlight[path]; busy {
		w.mu.Unlock()
		return nil
	}
	w.inFlight[path] = struct{}{}
	w.mu.Unlock()

	select {
	case w.semaphore <- struct{}{}:
	case <-ctx.Done():
		w.release(path)
		return ctx.Err()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() { <-w.semaphore }()
		defer w.release(path)

		if settle {
			select {
			case <-time.After(w.settleDelay):
			case <-ctx.Done():
				return
			}
		}
		w.handle(ctx, path)
	}()
	return nil
}

func (w *Watcher) release(path string) {
	w.mu.Lock()
	delete(w.inFlight, path)
	w.mu.Unlock()
}

func (w *Watcher) handle(ctx context.Context, path string) {
	name := filepath.Base(path)
	log := w.logger.With().Str("file", name).Logger()

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Msg("read inbox file failed")
		return
	}

	target := FailedDir
	rec, err := w.ingester.Ingest(ctx, data, name)
	switch {
	case err != nil && ctx.Err() != nil:
		// Interrupted by shutdown; the file is picked up again on the next start.
		log.Warn().Err(err).Msg("ingest interrupted, file left in inbox")
		return
	case err != nil:
		log.Error().Err(err).Msg("ingest failed")
	default:
		target = DoneDir
		log.Info().Str("meeting_id", rec.ID.String()).Str("state", string(rec.State)).Msg("inbox file ingested")
	}

	if err := os.Rename(path, w.destination(target, name)); err != nil {
		log.Warn().Err(err).Str("target", target).Msg("move inbox file failed")
	}
}

// destination picks a free name under target so earlier files with the same
// name are never overwritten.
func (w *Watcher) destination(target, name string) string {
	dst := filepath.Join(w.dir, target, name)
	if _, err := os.Stat(dst); errors.Is(err, fs.ErrNotExist) {
		return dst
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return filepath.Join(w.dir, target, fmt.Sprintf("%s-%d%s", stem, time.Now().UnixNano(), ext))
}

func isAudioFile(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return slices.Contains(audioExtensions, strings.ToLower(filepath.Ext(name)))
}
