// Package pipeline holds the shared state of one workflow run and its
// on-disk store. The state object is owned exclusively by the orchestrator:
// stages receive scoped read views and return deltas, never a live handle
// into shared state.
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/lucaskeller/crossfeed/internal/record"
)

// Status is the terminal (or in-flight) status of a run.
type Status string

const (
	StatusRunning         Status = "running"
	StatusSucceeded       Status = "succeeded"
	StatusFailed          Status = "failed"
	StatusPartiallyFailed Status = "partially_failed"
)

// State is the single shared mutable object for one workflow run.
type State struct {
	RunID    string `json:"run_id"`
	Workflow string `json:"workflow"`
	Query    string `json:"query"`
	Status   Status `json:"status"`

	// Entities are the resolved entities produced so far, in resolution
	// order.
	Entities []record.ResolvedEntity `json:"entities,omitempty"`

	// Outputs holds each completed stage's payload, keyed by stage ID.
	Outputs map[string]any `json:"outputs,omitempty"`

	// History is the per-stage trace: one entry per executed stage, in
	// completion order.
	History []StageTrace `json:"history"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// StageTrace is the structured trace record emitted for every executed
// stage.
type StageTrace struct {
	Stage      string `json:"stage"`
	Outcome    string `json:"outcome"`
	Attempts   int    `json:"attempts"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// NewState initializes a running state for a workflow run.
func NewState(workflow, query string) *State {
	now := time.Now().UTC().Format(time.RFC3339)
	return &State{
		RunID:     uuid.NewString(),
		Workflow:  workflow,
		Query:     query,
		Status:    StatusRunning,
		Outputs:   make(map[string]any),
		History:   []StageTrace{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// View is the scoped, read-only snapshot a stage executes against. It
// carries only the outputs of the stage's declared dependencies, with
// entities and record slices deep-copied so a stage cannot alias shared
// state.
type View struct {
	RunID    string
	Query    string
	Outputs  map[string]any
	Entities []record.ResolvedEntity
}

// Records returns the record slice a dependency stage produced, or nil if
// the dependency produced something else (or nothing).
func (v *View) Records(stageID string) []record.Record {
	recs, _ := v.Outputs[stageID].([]record.Record)
	return recs
}

// Delta is what a stage returns for the orchestrator to merge: new entities
// and/or the stage's own output payload.
type Delta struct {
	Entities []record.ResolvedEntity
	Output   any
}

// ViewFor builds the view for a stage with the given dependencies.
func (s *State) ViewFor(deps []string) *View {
	v := &View{
		RunID:   s.RunID,
		Query:   s.Query,
		Outputs: make(map[string]any, len(deps)),
	}
	for _, dep := range deps {
		out, ok := s.Outputs[dep]
		if !ok {
			continue
		}
		if recs, isRecs := out.([]record.Record); isRecs {
			cp := make([]record.Record, len(recs))
			for i, r := range recs {
				cp[i] = r.Clone()
			}
			v.Outputs[dep] = cp
			continue
		}
		v.Outputs[dep] = out
	}
	for _, e := range s.Entities {
		v.Entities = append(v.Entities, e.Clone())
	}
	return v
}

// Merge commits a stage's delta into the state. Only the orchestrator calls
// this, sequentially, so the state needs no lock.
func (s *State) Merge(stageID string, d *Delta) {
	if d == nil {
		return
	}
	s.Entities = append(s.Entities, d.Entities...)
	if d.Output != nil {
		s.Outputs[stageID] = d.Output
	}
	s.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

// DropAmbiguous removes ambiguous entities from the state and returns how
// many were dropped. Used by the drop policy.
func (s *State) DropAmbiguous() int {
	kept := s.Entities[:0]
	dropped := 0
	for _, e := range s.Entities {
		if e.Status == record.StatusAmbiguous {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	s.Entities = kept
	return dropped
}
