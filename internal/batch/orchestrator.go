package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-resizer/internal/executor"
	"github.com/aliskhannn/image-resizer/internal/model"
)

var (
	// ErrEmptyQueue is returned by Start when nothing is queued.
	ErrEmptyQueue = errors.New("batch queue is empty")

	// ErrRunning is returned when the queue is touched while a batch runs.
	ErrRunning = errors.New("batch is already running")
)

// resizedSuffix is appended to the input base name of every output file.
const resizedSuffix = "_resized"

// Params are the shared resize parameters of one batch session.
type Params struct {
	Width            int
	Height           int
	KeepAspect       bool
	Quality          int
	Format           model.Format
	PreserveMetadata bool
	OutputDir        string // empty: next to each input
}

// Request builds the resize request for one input path.
func (p Params) Request(input string) model.ResizeRequest {
	return model.ResizeRequest{
		InputPath:        input,
		OutputPath:       OutputPath(input, p.OutputDir, p.Format),
		Width:            p.Width,
		Height:           p.Height,
		KeepAspect:       p.KeepAspect,
		Quality:          p.Quality,
		Format:           p.Format,
		PreserveMetadata: p.PreserveMetadata,
	}
}

// OutputPath derives {dir}/{base}_resized.{ext} for input. An empty
// outputDir places the result next to the input.
func OutputPath(input, outputDir string, format model.Format) string {
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}

	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	return filepath.Join(dir, name+resizedSuffix+"."+format.Extension())
}

// submitter defines the interface for the executor running each item.
type submitter interface {
	Run(ctx context.Context, req model.ResizeRequest) *executor.Handle
}

// Orchestrator owns a deduplicated queue of input paths and drives them
// through the executor one at a time.
type Orchestrator struct {
	exec submitter

	mu        sync.Mutex
	queue     []string
	queued    map[string]struct{}
	running   bool
	completed int
	total     int
	last      *model.BatchReport
}

// New creates an Orchestrator submitting work to exec.
func New(exec submitter) *Orchestrator {
	return &Orchestrator{
		exec:   exec,
		queued: make(map[string]struct{}),
	}
}

// AddPaths appends every path not already queued, keeping first-insertion
// order, and returns how many were added. Blank paths are skipped.
func (o *Orchestrator) AddPaths(paths ...string) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return 0, ErrRunning
	}

	added := 0
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if _, ok := o.queued[p]; ok {
			continue
		}
		o.queued[p] = struct{}{}
		o.queue = append(o.queue, p)
		added++
	}

	return added, nil
}

// Clear empties the queue.
func (o *Orchestrator) Clear() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return ErrRunning
	}

	o.queue = nil
	o.queued = make(map[string]struct{})

	return nil
}

// Queue returns a snapshot of the queued paths.
func (o *Orchestrator) Queue() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.queue...)
}

// Running reports whether a batch is in progress.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// Progress returns the counters of the current or most recent batch.
func (o *Orchestrator) Progress() (completed, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.completed, o.total
}

// LastReport returns the report of the most recently finished batch.
func (o *Orchestrator) LastReport() (model.BatchReport, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return model.BatchReport{}, false
	}
	return o.last.Clone(), true
}

// Progress is emitted after every finished item.
type Progress struct {
	Completed int
	Total     int
	Entry     model.ReportEntry
}

// Session is one running batch.
type Session struct {
	ID uuid.UUID

	progress chan Progress
	done     chan struct{}
	report   model.BatchReport
}

// Progress streams one value per finished item and is closed when the
// batch is finalized. Values are buffered, so reading is optional.
func (s *Session) Progress() <-chan Progress {
	return s.progress
}

// Done is closed once the report is final.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the batch is finalized or ctx is done.
func (s *Session) Wait(ctx context.Context) (model.BatchReport, error) {
	select {
	case <-s.done:
		return s.report.Clone(), nil
	case <-ctx.Done():
		return model.BatchReport{}, ctx.Err()
	}
}

// Start runs every queued path with params and returns immediately.
// Items are submitted strictly one after another: the next item is handed
// to the executor only after the previous one delivered its terminal event.
// A failing item is recorded and never stops the batch. Canceling ctx
// makes the remaining items fail fast.
func (o *Orchestrator) Start(ctx context.Context, params Params) (*Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return nil, ErrRunning
	}
	if len(o.queue) == 0 {
		return nil, ErrEmptyQueue
	}

	paths := append([]string(nil), o.queue...)

	o.running = true
	o.completed = 0
	o.total = len(paths)

	s := &Session{
		ID:       uuid.New(),
		progress: make(chan Progress, len(paths)),
		done:     make(chan struct{}),
		report: model.BatchReport{
			Entries:   make([]model.ReportEntry, 0, len(paths)),
			StartedAt: time.Now().UTC(),
		},
	}
	s.report.ID = s.ID

	zlog.Logger.Info().
		Str("batch_id", s.ID.String()).
		Int("total", len(paths)).
		Str("format", params.Format.String()).
		Msg("batch started")

	go o.drive(ctx, s, paths, params)

	return s, nil
}

func (o *Orchestrator) drive(ctx context.Context, s *Session, paths []string, params Params) {
	for cursor := 0; cursor < len(paths); cursor++ {
		input := paths[cursor]
		entry := model.ReportEntry{
			InputPath: input,
			Outcome:   o.runItem(ctx, params.Request(input)),
		}
		s.report.Entries = append(s.report.Entries, entry)

		o.mu.Lock()
		o.completed = len(s.report.Entries)
		o.mu.Unlock()

		s.progress <- Progress{Completed: len(s.report.Entries), Total: len(paths), Entry: entry}
	}

	s.report.FinishedAt = time.Now().UTC()

	o.mu.Lock()
	final := s.report.Clone()
	o.last = &final
	o.running = false
	o.mu.Unlock()

	zlog.Logger.Info().
		Str("batch_id", s.ID.String()).
		Int("total", len(paths)).
		Int("succeeded", final.Succeeded()).
		Int("failed", final.Failed()).
		Dur("took", final.FinishedAt.Sub(final.StartedAt)).
		Msg("batch finished")

	close(s.progress)
	close(s.done)
}

// runItem submits req and blocks until its terminal event arrives.
func (o *Orchestrator) runItem(ctx context.Context, req model.ResizeRequest) model.Outcome {
	h := o.exec.Run(ctx, req)
	for ev := range h.Events() {
		if ev.Terminal() {
			return ev.Outcome
		}
	}
	return model.Failure(fmt.Sprintf("task %s ended without an outcome", h.ID))
}
