package builder

// BuildxBuilder runs "docker buildx build".
type BuildxBuilder struct {
	engine
}

func NewBuildx(opts Options) *BuildxBuilder {
	binary := opts.Binary
	if binary == "" {
		binary = "docker"
	}
	return &BuildxBuilder{engine{
		name:       "buildx",
		binary:     binary,
		subcommand: []string{"buildx", "build"},
		opts:       opts,
	}}
}
