// Package image describes what one engine invocation should produce: the
// build file, context, target stage, tags, labels and arguments.
package image

import (
	"maps"
	"reflect"
	"slices"
	"strings"
)

type Image struct {
	Dockerfile string
	ContextDir string
	Target     string
	tags       []string
	Labels     map[string]string
	BuildArgs  map[string]string
	Platforms  []string
}

func New() *Image {
	return &Image{
		tags:      []string{},
		Labels:    map[string]string{},
		BuildArgs: map[string]string{},
		Platforms: []string{},
	}
}

func (i *Image) String() string {
	if i.Target == "" {
		return "(last stage)"
	}
	return i.Target
}

func (i *Image) SetDockerfile(dockerfile string) *Image {
	i.Dockerfile = dockerfile
	return i
}

func (i *Image) SetContextDir(contextDir string) *Image {
	i.ContextDir = contextDir
	return i
}

func (i *Image) SetTarget(target string) *Image {
	i.Target = target
	return i
}

func (i *Image) SetMaintainer(maintainer string) *Image {
	if maintainer != "" {
		i.Labels["maintainer"] = maintainer
		i.Labels["org.opencontainers.image.authors"] = maintainer
	} else {
		delete(i.Labels, "maintainer")
		delete(i.Labels, "org.opencontainers.image.authors")
	}
	return i
}

func (i *Image) SetPlatforms(platforms []string) *Image {
	if len(platforms) > 0 {
		i.Platforms = slices.Clone(platforms)
	}
	return i
}

// AddTags appends tags, skipping blanks and ones already present.
func (i *Image) AddTags(tags ...string) *Image {
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" && !slices.Contains(i.tags, tag) {
			i.tags = append(i.tags, tag)
		}
	}
	return i
}

func (i *Image) Tags() []string {
	return slices.Clone(i.tags)
}

func (i *Image) AddLabels(labels map[string]string) *Image {
	maps.Copy(i.Labels, labels)
	return i
}

func (i *Image) AddArgs(args map[string]string) *Image {
	maps.Copy(i.BuildArgs, args)
	return i
}

// Clone returns a deep copy, used to derive one Image per target from a
// shared template.
func (i *Image) Clone() *Image {
	return &Image{
		Dockerfile: i.Dockerfile,
		ContextDir: i.ContextDir,
		Target:     i.Target,
		tags:       slices.Clone(i.tags),
		Labels:     maps.Clone(i.Labels),
		BuildArgs:  maps.Clone(i.BuildArgs),
		Platforms:  slices.Clone(i.Platforms),
	}
}

func (i *Image) Equal(image *Image) bool {
	return reflect.DeepEqual(i, image)
}
