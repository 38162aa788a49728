package builder

type PodmanBuilder struct {
	engine
}

func NewPodman(opts Options) *PodmanBuilder {
	binary := opts.Binary
	if binary == "" {
		binary = "podman"
	}
	return &PodmanBuilder{engine{
		name:       "podman",
		binary:     binary,
		subcommand: []string{"build"},
		opts:       opts,
	}}
}
