package builder

// DockerBuilder runs the classic "docker build" with BuildKit enabled, which
// is required for --output.
type DockerBuilder struct {
	engine
}

func NewDocker(opts Options) *DockerBuilder {
	binary := opts.Binary
	if binary == "" {
		binary = "docker"
	}
	return &DockerBuilder{engine{
		name:       "docker",
		binary:     binary,
		subcommand: []string{"build"},
		env:        []string{"DOCKER_BUILDKIT=1"},
		opts:       opts,
	}}
}
