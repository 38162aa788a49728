package config

type Flags struct {
	File         string
	ContextDir   string
	Targets      []string
	Tags         []string
	Output       string
	ExportStage  string
	Set          []string
	SetJSON      []string
	ValuesFiles  []string
	EnvFile      string
	BuildArgs    []string
	Labels       []string
	OCILabels    bool
	Platforms    []string
	Engine       string
	EngineArgs   string
	KeepGoing    bool
	DryRun       bool
	Verbose      bool
	Quiet        bool
	NoColor      bool
	PrintVersion bool
}
