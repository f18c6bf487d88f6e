package config

import (
	"fmt"
	"time"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// recognizedKinds is the set of valid stage kinds.
var recognizedKinds = map[string]bool{
	"fetch":   true,
	"resolve": true,
	"analyze": true,
	"publish": true,
}

// recognizedSourceKinds is the set of valid source kinds.
var recognizedSourceKinds = map[string]bool{
	"econ_calendar": true,
	"news":          true,
	"nba_stats":     true,
	"odds":          true,
	"gcal":          true,
}

// Validate checks a WorkflowConfig for structural and semantic errors. It
// returns a slice of all validation errors found (empty if valid).
func Validate(cfg *WorkflowConfig) []ValidationError {
	var errs []ValidationError
	w := cfg.Workflow

	if w.Name == "" {
		errs = append(errs, ValidationError{Field: "workflow.name", Message: "is required"})
	}
	if w.OnAmbiguous != "drop" && w.OnAmbiguous != "halt" {
		errs = append(errs, ValidationError{
			Field:   "workflow.on_ambiguous",
			Message: fmt.Sprintf("must be \"drop\" or \"halt\", got %q", w.OnAmbiguous),
		})
	}
	if len(w.Stages) == 0 {
		errs = append(errs, ValidationError{Field: "workflow.stages", Message: "at least one stage is required"})
	}

	for name, src := range w.Sources {
		if !recognizedSourceKinds[src.Kind] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("workflow.sources.%s.kind", name),
				Message: fmt.Sprintf("unknown source kind %q", src.Kind),
			})
		}
	}

	if w.Resolver.TimeWindow != "" {
		if _, err := time.ParseDuration(w.Resolver.TimeWindow); err != nil {
			errs = append(errs, ValidationError{
				Field:   "workflow.resolver.time_window",
				Message: fmt.Sprintf("invalid duration: %v", err),
			})
		}
	}

	stageIDs := make(map[string]bool)
	for i, s := range w.Stages {
		if s.ID == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("workflow.stages[%d].id", i),
				Message: "is required",
			})
			continue
		}
		if stageIDs[s.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("workflow.stages[%d].id", i),
				Message: fmt.Sprintf("duplicate stage ID %q", s.ID),
			})
		}
		stageIDs[s.ID] = true
	}

	for i, s := range w.Stages {
		field := func(sub string) string {
			return fmt.Sprintf("workflow.stages[%d].%s", i, sub)
		}

		if !recognizedKinds[s.Kind] {
			errs = append(errs, ValidationError{
				Field:   field("kind"),
				Message: fmt.Sprintf("unknown stage kind %q", s.Kind),
			})
			continue
		}

		switch s.Kind {
		case "fetch":
			if s.Source == "" {
				errs = append(errs, ValidationError{Field: field("source"), Message: "fetch stage requires a source"})
			} else if _, ok := w.Sources[s.Source]; !ok {
				errs = append(errs, ValidationError{
					Field:   field("source"),
					Message: fmt.Sprintf("references undefined source %q", s.Source),
				})
			}
		case "resolve":
			if s.Primary == "" || s.Candidates == "" {
				errs = append(errs, ValidationError{Field: field("primary"), Message: "resolve stage requires primary and candidates"})
			}
			if s.Primary != "" && !stageIDs[s.Primary] {
				errs = append(errs, ValidationError{
					Field:   field("primary"),
					Message: fmt.Sprintf("references unknown stage %q", s.Primary),
				})
			}
			if s.Candidates != "" && !stageIDs[s.Candidates] {
				errs = append(errs, ValidationError{
					Field:   field("candidates"),
					Message: fmt.Sprintf("references unknown stage %q", s.Candidates),
				})
			}
		case "publish":
			if s.From == "" {
				errs = append(errs, ValidationError{Field: field("from"), Message: "publish stage requires a from stage"})
			} else if !stageIDs[s.From] {
				errs = append(errs, ValidationError{
					Field:   field("from"),
					Message: fmt.Sprintf("references unknown stage %q", s.From),
				})
			}
			if s.Source == "" {
				errs = append(errs, ValidationError{Field: field("source"), Message: "publish stage requires a sink source"})
			} else if _, ok := w.Sources[s.Source]; !ok {
				errs = append(errs, ValidationError{
					Field:   field("source"),
					Message: fmt.Sprintf("references undefined source %q", s.Source),
				})
			}
		}

		for _, dep := range s.DependsOn {
			if !stageIDs[dep] {
				errs = append(errs, ValidationError{
					Field:   field("depends_on"),
					Message: fmt.Sprintf("references unknown stage %q", dep),
				})
			}
			if dep == s.ID {
				errs = append(errs, ValidationError{Field: field("depends_on"), Message: "stage depends on itself"})
			}
		}

		if s.Timeout != "" {
			if _, err := time.ParseDuration(s.Timeout); err != nil {
				errs = append(errs, ValidationError{
					Field:   field("timeout"),
					Message: fmt.Sprintf("invalid duration: %v", err),
				})
			}
		}
		if s.MaxRetries != nil && *s.MaxRetries < 0 {
			errs = append(errs, ValidationError{Field: field("max_retries"), Message: "must be non-negative"})
		}
	}

	return errs
}
