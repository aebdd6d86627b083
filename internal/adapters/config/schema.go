package config

// Workfile is the structure of a kiln.work.yaml workspace root.
type Workfile struct {
	Version  string            `yaml:"version"`
	Root     string            `yaml:"root"`
	Tools    map[string]string `yaml:"tools"`
	Projects []string          `yaml:"projects"`
	Excludes []string          `yaml:"excludes"`
}

// Buildfile is the structure of a single project's kiln.yaml.
type Buildfile struct {
	Version    string                  `yaml:"version"`
	Project    string                  `yaml:"project"`
	Root       string                  `yaml:"root"`
	Tools      map[string]string       `yaml:"tools"`
	Properties map[string]PropertyDTO  `yaml:"properties"`
	Options    map[string]any          `yaml:"options"`
	Targets    map[string]*TargetDTO   `yaml:"targets"`
}

// PropertyDTO declares a substitutable property.
type PropertyDTO struct {
	Kind    string `yaml:"kind"` // "string" (default) or "path"
	Default string `yaml:"default"`
}

// TargetDTO is a single target definition in a kiln.yaml.
type TargetDTO struct {
	Kind           string            `yaml:"kind"`
	Output         string            `yaml:"output"`
	OutputIsDir    bool              `yaml:"outputIsDir"`
	Input          []string          `yaml:"input"`
	Cmd            []string          `yaml:"cmd"`
	Target         []string          `yaml:"target"`
	Tools          []string          `yaml:"tools"`
	DependsOn      []string          `yaml:"dependsOn"`
	Environment    map[string]string `yaml:"environment"`
	WorkingDir     string            `yaml:"workingDir"`
	Tags           []string          `yaml:"tags"`
	Priority       float64           `yaml:"priority"`
	DisableInFull  bool              `yaml:"disableInFullBuild"`
	FailureRetries int               `yaml:"failureRetries"`
	CleanOnRebuild bool              `yaml:"cleanOnRebuild"`
	Options        map[string]any    `yaml:"options"`
	StampFile      string            `yaml:"stampFile"`
}
