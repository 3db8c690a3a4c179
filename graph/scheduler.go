package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/corvid-labs/chatgraph/graph/emit"
	"github.com/google/uuid"
)

// scheduler drives one run (and its resumes) through steps. It owns the
// store, the compiled graph, the run configuration, and the sink every
// event is ultimately flushed to.
type scheduler struct {
	graph  *Graph
	store  *Store
	config RunConfig
	sink   emit.Emitter

	runID     uuid.UUID
	threadID  string
	attemptID uuid.UUID
	maxSteps  int
	metrics   *Metrics
}

// taskResult is what one node invocation produces, captured before it is
// flushed to the real sink so that concurrently-running nodes' events can
// be reordered into canonical (node id) order at the step barrier.
type taskResult struct {
	nodeID string
	taskID string
	output NodeOutput
	err    error
	events []emit.Event
}

func (s *scheduler) newEmitFunc(nodeID, taskID string, buf *[]emit.Event, mu *sync.Mutex) EmitFunc {
	return func(kind EventKind, metadata map[string]any) {
		mu.Lock()
		defer mu.Unlock()
		*buf = append(*buf, emit.Event{
			RunID:     s.runID.String(),
			AttemptID: s.attemptID.String(),
			Timestamp: time.Now(),
			Kind:      kind,
			Metadata:  metadata,
		})
	}
}

func (s *scheduler) emit(kind EventKind, metadata map[string]any) {
	s.sink.Emit(emit.Event{
		RunID:     s.runID.String(),
		AttemptID: s.attemptID.String(),
		Timestamp: time.Now(),
		Kind:      kind,
		Metadata:  metadata,
	})
}

// runStep executes one barrier-synchronized round over frontier, returning
// the committed channel updates, the next frontier, and an *Interrupt if a
// node raised one (in which case no writes are committed).
func (s *scheduler) runStep(ctx context.Context, stepIndex uint32, frontier []string, resume map[string]*Resume) ([]ChannelUpdate, []string, *Interrupt, error) {
	sorted := append([]string{}, frontier...)
	sort.Strings(sorted)

	s.emit(StepStarted, map[string]any{"stepIndex": stepIndex, "frontier": sorted})
	stepStart := time.Now()

	results := make([]taskResult, len(sorted))
	var wg sync.WaitGroup
	snapshot := s.store.Snapshot()

	for i, nodeID := range sorted {
		fn, ok := s.graph.Node(nodeID)
		if !ok {
			return nil, nil, nil, fmt.Errorf("%w: node %s not found in graph", ErrInvalidRunOptions, nodeID)
		}
		taskID := DeriveTaskID(s.runID, s.attemptID, stepIndex, nodeID)

		wg.Add(1)
		go func(i int, nodeID, taskID string, fn NodeFunc) {
			defer wg.Done()
			var buf []emit.Event
			var mu sync.Mutex
			buf = append(buf, emit.Event{
				RunID: s.runID.String(), AttemptID: s.attemptID.String(),
				Timestamp: time.Now(), Kind: TaskStarted,
				Metadata: map[string]any{"nodeID": nodeID, "taskID": taskID},
			})

			in := NodeInput{
				Snapshot:    snapshot,
				Run:         RunContext{RunID: s.runID, ThreadID: s.threadID, AttemptID: s.attemptID, TaskID: taskID, StepIndex: stepIndex, NodeID: nodeID},
				Environment: &s.config.Environment,
				Emit:        s.newEmitFunc(nodeID, taskID, &buf, &mu),
				Resume:      resume[nodeID],
			}
			taskStart := time.Now()
			out, err := fn(ctx, in)
			if s.metrics != nil {
				s.metrics.ObserveTask(nodeID, time.Since(taskStart), err == nil)
			}

			mu.Lock()
			buf = append(buf, emit.Event{
				RunID: s.runID.String(), AttemptID: s.attemptID.String(),
				Timestamp: time.Now(), Kind: TaskFinished,
				Metadata: map[string]any{"nodeID": nodeID, "taskID": taskID, "success": err == nil},
			})
			mu.Unlock()

			results[i] = taskResult{nodeID: nodeID, taskID: taskID, output: out, err: err, events: buf}
		}(i, nodeID, taskID, fn)
	}
	wg.Wait()

	for _, r := range results {
		for _, e := range r.events {
			s.sink.Emit(e)
		}
		if r.err != nil {
			s.observeStep(stepStart, false)
			return nil, nil, nil, r.err
		}
	}

	for _, r := range results {
		if r.output.Interrupt != nil {
			if s.metrics != nil {
				s.metrics.IncInterrupt()
			}
			s.observeStep(stepStart, true)
			return nil, nil, &Interrupt{ID: uuid.NewString(), NodeID: r.nodeID, Payload: r.output.Interrupt.Payload}, nil
		}
	}

	var writes []StagedWrite
	for _, r := range results {
		writes = append(writes, r.output.Writes...)
	}
	updates, err := s.store.Commit(writes)
	if err != nil {
		s.observeStep(stepStart, false)
		return nil, nil, nil, err
	}
	for _, u := range updates {
		s.emit(ChannelUpdated, map[string]any{"channelKey": u.ChannelKey})
	}

	postCommit := s.store.Snapshot()
	next := map[string]struct{}{}
	for _, r := range results {
		decision, err := s.resolveRouting(ctx, r.nodeID, r.output.Routing, postCommit)
		if err != nil {
			return nil, nil, nil, err
		}
		switch decision.Kind {
		case RouteEnd:
			// contributes nothing; an empty next frontier ends the run.
		case RouteNodes:
			for _, n := range decision.Nodes {
				next[n] = struct{}{}
			}
		case RouteUseGraphEdges:
			for _, to := range s.graph.StaticEdges(r.nodeID) {
				next[to] = struct{}{}
			}
		}
	}

	nextFrontier := make([]string, 0, len(next))
	for n := range next {
		nextFrontier = append(nextFrontier, n)
	}
	sort.Strings(nextFrontier)

	s.emit(StepFinished, map[string]any{"stepIndex": stepIndex})
	s.observeStep(stepStart, true)
	return updates, nextFrontier, nil, nil
}

func (s *scheduler) observeStep(start time.Time, success bool) {
	if s.metrics != nil {
		s.metrics.ObserveStep(time.Since(start), success)
	}
}

// resolveRouting implements the precedence rule: a node-supplied override
// wins; otherwise a registered router is evaluated against the
// post-commit snapshot; otherwise the node's static edges apply. A router
// (or an override) that itself returns UseGraphEdges also falls back to
// static edges.
func (s *scheduler) resolveRouting(ctx context.Context, nodeID string, override *RoutingDecision, postCommit map[string]any) (RoutingDecision, error) {
	if override != nil {
		return *override, nil
	}
	if router, ok := s.graph.Router(nodeID); ok {
		return router(ctx, postCommit)
	}
	return UseGraphEdges(), nil
}
