package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-resizer/internal/model"
)

// eventBuffer holds every event a single task can emit: one progress
// event per working stage plus the terminal one.
const eventBuffer = 4

// runner defines the interface for the resize engine the executor drives.
type runner interface {
	Process(ctx context.Context, req model.ResizeRequest, report func(model.Stage)) (string, error)
}

// Executor runs resize tasks in the background, one at a time.
// Run never blocks the caller; results are delivered through the returned Handle.
type Executor struct {
	runner runner
	slot   chan struct{}
	wg     sync.WaitGroup
}

// New creates an Executor driving the given runner.
func New(r runner) *Executor {
	return &Executor{
		runner: r,
		slot:   make(chan struct{}, 1),
	}
}

// Run schedules req and returns immediately. The task starts once the
// execution slot is free. Canceling ctx before that fails the task without
// running it; canceling it later stops the task at the next stage boundary.
func (e *Executor) Run(ctx context.Context, req model.ResizeRequest) *Handle {
	h := newHandle(req)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		select {
		case e.slot <- struct{}{}:
		case <-ctx.Done():
			e.cancel(h, ctx.Err())
			return
		}
		defer func() { <-e.slot }()

		if err := ctx.Err(); err != nil {
			e.cancel(h, err)
			return
		}

		e.execute(ctx, h)
	}()

	return h
}

// Busy reports whether a task currently holds the execution slot.
func (e *Executor) Busy() bool {
	return len(e.slot) >= cap(e.slot)
}

// WaitAll blocks until every scheduled task finished or ctx is done.
// Returns true if all tasks finished, false if ctx expired first.
func (e *Executor) WaitAll(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *Executor) execute(ctx context.Context, h *Handle) {
	var outcome model.Outcome
	defer func() {
		if r := recover(); r != nil {
			outcome = model.Failure(fmt.Sprintf("resize task panicked: %v", r))
		}
		logOutcome(h, outcome)
		h.finish(outcome)
	}()

	dst, err := e.runner.Process(ctx, h.Request, h.progress)
	if err != nil {
		outcome = model.Failure(err.Error())
		return
	}
	outcome = model.Success(dst)
}

func (e *Executor) cancel(h *Handle, err error) {
	o := model.Failure(fmt.Sprintf("canceled before start: %v", err))
	logOutcome(h, o)
	h.finish(o)
}

func logOutcome(h *Handle, o model.Outcome) {
	if o.OK() {
		zlog.Logger.Info().
			Str("task_id", h.ID.String()).
			Str("input", h.Request.InputPath).
			Str("output", o.OutputPath).
			Msg("image resized")
		return
	}

	zlog.Logger.Error().
		Str("task_id", h.ID.String()).
		Str("input", h.Request.InputPath).
		Str("error", o.Message).
		Msg("failed to resize image")
}

// EventKind distinguishes progress events from terminal ones.
type EventKind int

const (
	EventProgress EventKind = iota
	EventSucceeded
	EventFailed
)

// Event is a notification about one task.
type Event struct {
	TaskID  uuid.UUID
	Kind    EventKind
	Stage   model.Stage
	Outcome model.Outcome // set on terminal events only
}

// Terminal reports whether e ends the task's event stream.
func (e Event) Terminal() bool {
	return e.Kind != EventProgress
}

// Handle tracks one scheduled task.
type Handle struct {
	ID      uuid.UUID
	Request model.ResizeRequest

	events  chan Event
	done    chan struct{}
	once    sync.Once
	outcome model.Outcome
}

func newHandle(req model.ResizeRequest) *Handle {
	return &Handle{
		ID:      uuid.New(),
		Request: req,
		events:  make(chan Event, eventBuffer),
		done:    make(chan struct{}),
	}
}

// Events delivers zero or more progress events followed by exactly one
// terminal event, after which the channel is closed.
func (h *Handle) Events() <-chan Event {
	return h.events
}

// Done is closed once the task reached its terminal state.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the task finishes or ctx is done.
func (h *Handle) Wait(ctx context.Context) (model.Outcome, error) {
	select {
	case <-h.done:
		return h.outcome, nil
	case <-ctx.Done():
		return model.Outcome{}, ctx.Err()
	}
}

// progress is only called from the task goroutine. The last buffer slot is
// kept free for the terminal event so an unread handle never stalls the slot.
func (h *Handle) progress(stage model.Stage) {
	if len(h.events) >= cap(h.events)-1 {
		return
	}
	h.events <- Event{TaskID: h.ID, Kind: EventProgress, Stage: stage}
}

func (h *Handle) finish(o model.Outcome) {
	h.once.Do(func() {
		h.outcome = o

		ev := Event{TaskID: h.ID, Kind: EventSucceeded, Stage: model.StageCompleted, Outcome: o}
		if !o.OK() {
			ev.Kind = EventFailed
			ev.Stage = model.StageFailed
		}
		h.events <- ev

		close(h.events)
		close(h.done)
	})
}
