package orchestrator

import (
	"fmt"

	"github.com/lucaskeller/crossfeed/internal/stage"
)

// AmbiguousPolicy decides what happens when a resolution stage reports
// ambiguous entities. There is deliberately no "accept top candidate"
// policy.
type AmbiguousPolicy string

const (
	// PolicyDrop removes ambiguous entities from the batch and lets the run
	// continue degraded.
	PolicyDrop AmbiguousPolicy = "drop"
	// PolicyHalt stops the run so a human can disambiguate; the ambiguous
	// candidates are preserved in the run state.
	PolicyHalt AmbiguousPolicy = "halt"
)

// Workflow is the ordered, branching stage list for one pipeline: a DAG
// expressed as per-stage dependency edges.
type Workflow struct {
	Name        string
	Stages      []stage.Spec
	OnAmbiguous AmbiguousPolicy
}

// Validate checks structural soundness: unique stage IDs, known
// dependencies, no cycles.
func (w Workflow) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("workflow has no name")
	}
	if len(w.Stages) == 0 {
		return fmt.Errorf("workflow %q has no stages", w.Name)
	}
	switch w.OnAmbiguous {
	case PolicyDrop, PolicyHalt, "":
	default:
		return fmt.Errorf("workflow %q: unknown ambiguous policy %q", w.Name, w.OnAmbiguous)
	}

	byID := make(map[string]stage.Spec, len(w.Stages))
	for _, s := range w.Stages {
		if s.ID == "" {
			return fmt.Errorf("workflow %q: stage with empty id", w.Name)
		}
		if _, dup := byID[s.ID]; dup {
			return fmt.Errorf("workflow %q: duplicate stage id %q", w.Name, s.ID)
		}
		byID[s.ID] = s
	}
	for _, s := range w.Stages {
		for _, dep := range s.DependsOn {
			if _, ok := byID[dep]; !ok {
				return fmt.Errorf("stage %q depends on unknown stage %q", s.ID, dep)
			}
			if dep == s.ID {
				return fmt.Errorf("stage %q depends on itself", s.ID)
			}
		}
	}
	return w.checkAcyclic(byID)
}

// checkAcyclic runs a three-color DFS over the dependency edges.
func (w Workflow) checkAcyclic(byID map[string]stage.Spec) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(byID))

	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case gray:
			return fmt.Errorf("dependency cycle through stage %q", id)
		case black:
			return nil
		}
		color[id] = gray
		for _, dep := range byID[id].DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		color[id] = black
		return nil
	}

	for _, s := range w.Stages {
		if err := visit(s.ID); err != nil {
			return err
		}
	}
	return nil
}
