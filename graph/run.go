package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/corvid-labs/chatgraph/graph/emit"
	"github.com/google/uuid"
)

// CheckpointPolicy controls when the runtime persists a checkpoint.
type CheckpointPolicy int

const (
	CheckpointDisabled CheckpointPolicy = iota
	CheckpointEveryStep
)

// Options are the client-supplied knobs for a run.
type Options struct {
	MaxSteps         int
	CheckpointPolicy CheckpointPolicy
}

// OutcomeKind is the closed set of ways a run can terminate.
type OutcomeKind int

const (
	OutcomeFinished OutcomeKind = iota
	OutcomeOutOfSteps
	OutcomeInterrupted
	OutcomeCancelled
)

// Outcome is the terminal result of a run. Store is the full committed
// store snapshot (or the last one committed before an interrupt or
// cancellation). Interrupt is set only when Kind == OutcomeInterrupted.
// Err is set when the run failed rather than reaching one of the four
// defined outcomes.
type Outcome struct {
	Kind      OutcomeKind
	Store     map[string]any
	Interrupt *Interrupt
	Err       error
}

// RunHandle is returned by Start, Resume, and ApplyExternalWrites. Events
// are delivered through the Emitter configured on the Runtime (push
// model, matching this codebase's observability idiom); RunHandle itself
// only exposes identity, the outcome future, cancellation, and the
// dropped-event counter for the sink backing this run.
type RunHandle struct {
	RunID     uuid.UUID
	AttemptID uuid.UUID

	done    chan struct{}
	outcome Outcome
	cancel  context.CancelFunc
	sink    *boundedEventSink
}

// Outcome blocks until the run terminates and returns its outcome.
func (h *RunHandle) Outcome() Outcome {
	<-h.done
	return h.outcome
}

// Cancel requests cooperative cancellation. In-flight node invocations
// are signaled via context; the scheduler stops starting new steps once
// they settle.
func (h *RunHandle) Cancel() {
	h.cancel()
}

// EventsDropped reports how many events the run's sink has evicted under
// its drop-oldest backpressure policy so far. It is safe to call while
// the run is still in progress.
func (h *RunHandle) EventsDropped() uint64 {
	if h.sink == nil {
		return 0
	}
	return h.sink.Dropped()
}

// Runtime ties a compiled Graph and its channel registry to a RunConfig
// and an event sink, exposing the start/resume/applyExternalWrites
// surface. One Runtime can drive many threads; runs on the same thread
// are serialized.
type Runtime struct {
	graph  *Graph
	specs  map[string]Spec
	config RunConfig
	sink   *boundedEventSink

	mu          sync.Mutex
	threadLocks map[string]*sync.Mutex
}

// NewRuntime builds a Runtime. specs must include every channel key the
// graph's nodes read or write; BuiltinChannelSpecs() covers the standard
// messages/pendingToolCalls/finalAnswer/llmInputMessages channels.
//
// sink is wrapped in a bounded, drop-oldest queue (defaultEventBufferCapacity
// events) so a slow or stalled downstream emitter can never block a
// scheduler step; config.Metrics, if set, counts every drop.
func NewRuntime(graph *Graph, specs map[string]Spec, config RunConfig, sink emit.Emitter) *Runtime {
	wrapped := newBoundedEventSink(sink, defaultEventBufferCapacity, config.Metrics)
	return &Runtime{graph: graph, specs: specs, config: config, sink: wrapped, threadLocks: make(map[string]*sync.Mutex)}
}

func (r *Runtime) lockFor(threadID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.threadLocks[threadID]
	if !ok {
		l = &sync.Mutex{}
		r.threadLocks[threadID] = l
	}
	return l
}

// Start begins a new run on threadID with inputText appended as a user
// message, per spec.md 4.8's user-message identity derivation.
func (r *Runtime) Start(ctx context.Context, threadID string, inputText string, opts Options) (*RunHandle, error) {
	if err := Preflight(r.config); err != nil {
		return nil, err
	}

	runID := uuid.New()
	attemptID := uuid.New()
	store := NewStore(r.specs)

	userMsg := ChatMessage{
		ID:      DeriveUserMessageID(runID, 0),
		Role:    RoleUser,
		Content: inputText,
		Op:      OpNone,
	}
	if _, err := store.Commit([]StagedWrite{
		StageValue(MessagesChannel, "input", 0, []ChatMessage{userMsg}),
	}); err != nil {
		return nil, err
	}

	return r.run(ctx, threadID, runID, attemptID, store, r.graph.Start(), 0, nil, opts), nil
}

// Resume loads threadID's latest checkpoint, verifies it matches
// interruptID, restores the store, and re-enters the frontier that
// raised the interrupt with resume available to it. An approved resume
// executes whatever PendingToolCalls the restored store holds, including
// any changes applied since the interrupt was raised.
func (r *Runtime) Resume(ctx context.Context, threadID string, interruptID string, resume Resume, opts Options) (*RunHandle, error) {
	if err := Preflight(r.config); err != nil {
		return nil, err
	}
	if r.config.CheckpointStore == nil {
		return nil, ErrCheckpointStoreMissing
	}

	cp, ok, err := r.config.CheckpointStore.LoadLatest(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCheckpoint
	}
	if cp.PendingInterrupt == nil || cp.PendingInterrupt.ID != interruptID {
		return nil, ErrInterruptMismatch
	}

	runID, err := uuid.Parse(cp.RunID)
	if err != nil {
		return nil, fmt.Errorf("%w: checkpoint runID %q is not a uuid", ErrInvalidRunOptions, cp.RunID)
	}
	attemptID := uuid.New()

	store := NewStore(r.specs)
	if err := store.Restore(cp.StoreSnapshot); err != nil {
		return nil, fmt.Errorf("restoring checkpoint %s: %w", cp.ID, err)
	}

	resumeByNode := map[string]*Resume{cp.PendingInterrupt.NodeID: &resume}
	return r.run(ctx, threadID, runID, attemptID, store, cp.Frontier, cp.StepIndex, resumeByNode, opts), nil
}

// ApplyExternalWrites seeds the store with writes and commits a single
// checkpoint step with no node execution, per spec.md 6.
func (r *Runtime) ApplyExternalWrites(ctx context.Context, threadID string, writes []StagedWrite, opts Options) (*RunHandle, error) {
	if err := Preflight(r.config); err != nil {
		return nil, err
	}

	runID := uuid.New()
	attemptID := uuid.New()
	store := NewStore(r.specs)

	runCtx, cancel := context.WithCancel(ctx)
	handle := &RunHandle{RunID: runID, AttemptID: attemptID, done: make(chan struct{}), cancel: cancel, sink: r.sink}

	go func() {
		defer close(handle.done)
		sink := r.sink
		sink.Emit(emit.Event{RunID: runID.String(), AttemptID: attemptID.String(), Kind: RunStarted})
		updates, err := store.Commit(writes)
		if err != nil {
			handle.outcome = Outcome{Kind: OutcomeFinished, Err: err}
			return
		}
		for _, u := range updates {
			sink.Emit(emit.Event{RunID: runID.String(), AttemptID: attemptID.String(), Kind: ChannelUpdated, Metadata: map[string]any{"channelKey": u.ChannelKey}})
		}
		if r.config.CheckpointStore != nil && opts.CheckpointPolicy == CheckpointEveryStep {
			snapshot, err := store.CheckpointedValues()
			if err != nil {
				handle.outcome = Outcome{Kind: OutcomeFinished, Err: err}
				return
			}
			_ = r.config.CheckpointStore.Save(runCtx, Checkpoint{
				ID: uuid.NewString(), ThreadID: threadID, RunID: runID.String(),
				StepIndex: 0, StoreSnapshot: snapshot,
			})
		}
		sink.Emit(emit.Event{RunID: runID.String(), AttemptID: attemptID.String(), Kind: RunFinished})
		handle.outcome = Outcome{Kind: OutcomeFinished, Store: store.Snapshot()}
	}()

	return handle, nil
}

func (r *Runtime) run(ctx context.Context, threadID string, runID, attemptID uuid.UUID, store *Store, frontier []string, startStep uint32, resume map[string]*Resume, opts Options) *RunHandle {
	runCtx, cancel := context.WithCancel(ctx)
	handle := &RunHandle{RunID: runID, AttemptID: attemptID, done: make(chan struct{}), cancel: cancel, sink: r.sink}

	lock := r.lockFor(threadID)

	go func() {
		defer close(handle.done)
		lock.Lock()
		defer lock.Unlock()

		sched := &scheduler{graph: r.graph, store: store, config: r.config, sink: r.sink, runID: runID, threadID: threadID, attemptID: attemptID, maxSteps: opts.MaxSteps, metrics: r.config.Metrics}
		sched.emit(RunStarted, nil)

		stepIndex := startStep
		for {
			select {
			case <-runCtx.Done():
				handle.outcome = Outcome{Kind: OutcomeCancelled, Store: store.Snapshot()}
				return
			default:
			}

			_, next, interrupt, err := sched.runStep(runCtx, stepIndex, frontier, resume)
			resume = nil
			if err != nil {
				handle.outcome = Outcome{Kind: OutcomeFinished, Store: store.Snapshot(), Err: err}
				return
			}

			if interrupt != nil {
				if r.config.CheckpointStore != nil {
					snapshot, err := store.CheckpointedValues()
					if err != nil {
						handle.outcome = Outcome{Kind: OutcomeFinished, Store: store.Snapshot(), Err: err}
						return
					}
					if err := r.config.CheckpointStore.Save(runCtx, Checkpoint{
						ID: uuid.NewString(), ThreadID: threadID, RunID: runID.String(),
						StepIndex: stepIndex, Frontier: frontier,
						StoreSnapshot: snapshot, PendingInterrupt: interrupt,
					}); err != nil {
						handle.outcome = Outcome{Kind: OutcomeFinished, Store: store.Snapshot(), Err: err}
						return
					}
				}
				sched.emit(RunInterrupted, map[string]any{"interruptID": interrupt.ID})
				handle.outcome = Outcome{Kind: OutcomeInterrupted, Store: store.Snapshot(), Interrupt: interrupt}
				return
			}

			if opts.CheckpointPolicy == CheckpointEveryStep && r.config.CheckpointStore != nil {
				snapshot, err := store.CheckpointedValues()
				if err != nil {
					handle.outcome = Outcome{Kind: OutcomeFinished, Store: store.Snapshot(), Err: err}
					return
				}
				_ = r.config.CheckpointStore.Save(runCtx, Checkpoint{
					ID: uuid.NewString(), ThreadID: threadID, RunID: runID.String(),
					StepIndex: stepIndex, Frontier: next, StoreSnapshot: snapshot,
				})
			}

			if len(next) == 0 {
				sched.emit(RunFinished, nil)
				handle.outcome = Outcome{Kind: OutcomeFinished, Store: store.Snapshot()}
				return
			}
			if uint64(stepIndex)+1 > uint64(opts.MaxSteps) {
				sched.emit(RunFinished, map[string]any{"outOfSteps": true})
				handle.outcome = Outcome{Kind: OutcomeOutOfSteps, Store: store.Snapshot()}
				return
			}

			frontier = next
			stepIndex++
		}
	}()

	return handle
}
