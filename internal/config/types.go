package config

// WorkflowConfig is the top-level configuration structure parsed from a
// workflow YAML file.
type WorkflowConfig struct {
	Workflow Workflow `yaml:"workflow"`
}

// Workflow defines the full workflow: metadata, defaults, sources, resolver
// calibration, and stages.
type Workflow struct {
	Name        string            `yaml:"name"`
	OnAmbiguous string            `yaml:"on_ambiguous"` // "drop" (default) or "halt"
	Defaults    StageDefaults     `yaml:"defaults"`
	Resolver    Resolver          `yaml:"resolver"`
	Sources     map[string]Source `yaml:"sources"`
	Stages      []Stage           `yaml:"stages"`
}

// StageDefaults holds default values applied to stages that don't specify
// their own.
type StageDefaults struct {
	Timeout    string `yaml:"timeout"`
	MaxRetries *int   `yaml:"max_retries"`
}

// Source configures one external data provider. Credentials come from the
// environment, never from the file.
type Source struct {
	Kind              string `yaml:"kind"` // econ_calendar, news, nba_stats, odds, gcal
	BaseURL           string `yaml:"base_url"`
	APIKeyEnv         string `yaml:"api_key_env"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// Resolver holds the entity-resolution calibration for this workflow.
// Unset fields inherit the resolver defaults.
type Resolver struct {
	NameWeight       *float64          `yaml:"name_weight"`
	TimeWeight       *float64          `yaml:"time_weight"`
	AttrWeight       *float64          `yaml:"attr_weight"`
	TimeWindow       string            `yaml:"time_window"`
	MinScore         *float64          `yaml:"min_score"`
	AcceptThreshold  *float64          `yaml:"accept_threshold"`
	SeparationMargin *float64          `yaml:"separation_margin"`
	AliasSet         string            `yaml:"alias_set"` // "nba" enables built-in team aliases
	Aliases          map[string]string `yaml:"aliases"`
}

// Stage defines a single pipeline stage.
type Stage struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind"` // fetch, resolve, analyze, publish

	// Source names a configured source (fetch and publish stages).
	Source string `yaml:"source"`

	// Primary/Candidates name upstream fetch stages (resolve stages).
	Primary    string `yaml:"primary"`
	Candidates string `yaml:"candidates"`

	// From names the stage whose output is published (publish stages).
	From string `yaml:"from"`

	// NotesFrom lists stages whose records feed the analyzer as free-form
	// notes (analyze stages).
	NotesFrom []string `yaml:"notes_from"`

	// Params are passed through to the source adapter on fetch stages
	// (e.g. entity: players for the stats source).
	Params map[string]string `yaml:"params"`

	DependsOn  []string `yaml:"depends_on"`
	Optional   bool     `yaml:"optional"`
	Timeout    string   `yaml:"timeout"`
	MaxRetries *int     `yaml:"max_retries"`
}
