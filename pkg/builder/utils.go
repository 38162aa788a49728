package builder

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/tgagor/bern/pkg/image"
)

func sanitizeForFileName(input string) string {
	// Replace any character that is not a letter, number, or safe symbol (-, _) with an underscore
	reg := regexp.MustCompile(`[^a-zA-Z0-9-_\.]+`)
	return reg.ReplaceAllString(input, "_")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func labelsToArgs(labels map[string]string) []string {
	args := []string{}
	for _, k := range sortedKeys(labels) {
		args = append(args, "--label", k+"="+labels[k])
	}
	return args
}

func buildArgsToArgs(buildArgs map[string]string) []string {
	args := []string{}
	for _, k := range sortedKeys(buildArgs) {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%v", k, buildArgs[k]))
	}
	return args
}

func platformsToArgs(platforms []string) []string {
	if len(platforms) == 0 {
		return nil
	}
	return []string{"--platform", strings.Join(platforms, ",")}
}

func tagsToArgs(tags []string) []string {
	args := []string{}
	for _, tag := range tags {
		args = append(args, "-t", tag)
	}
	return args
}

// commonArgs are the flags shared by build and export invocations, in a
// stable order.
func commonArgs(img *image.Image) []string {
	args := []string{"-f", img.Dockerfile}
	if img.Target != "" {
		args = append(args, "--target", img.Target)
	}
	args = append(args, platformsToArgs(img.Platforms)...)
	args = append(args, buildArgsToArgs(img.BuildArgs)...)
	return args
}
