package image

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tgagor/bern/pkg/vars"
)

// OCILabels derives the standard annotations for an image built from root.
// Follow:
// https://github.com/opencontainers/image-spec/blob/main/annotations.md
func OCILabels(root string, data map[string]any, now time.Time) map[string]string {
	labels := map[string]string{}

	if maintainer, ok := data["maintainer"]; ok && fmt.Sprint(maintainer) != "" {
		labels["maintainer"] = fmt.Sprint(maintainer)
		labels["org.opencontainers.image.authors"] = fmt.Sprint(maintainer)
	}

	for _, key := range []string{"version", "tag"} {
		if version, ok := data[key]; ok && fmt.Sprint(version) != "" {
			labels["org.opencontainers.image.version"] = fmt.Sprint(version)
			break
		}
	}

	labels["org.opencontainers.image.created"] = now.Format(time.RFC3339)

	info, err := vars.ReadGitRepo(root)
	if err != nil {
		log.Warn().Err(err).Msg("Not being able to read git repo metadata, or not a git repo. Skipping.")
	} else if info != nil {
		if info.Origin != "" {
			labels["org.opencontainers.image.source"] = info.Origin
		}
		if info.Commit != "" {
			labels["org.opencontainers.image.revision"] = info.Commit
		}
		if info.Branch != "" {
			labels["org.opencontainers.image.branch"] = info.Branch
		}
	}

	log.Debug().Interface("labels", labels).Msg("Adding OCI")
	return labels
}
