package builder_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const fakeID = "sha256:2f3c4b1a0e9d8c7b6a5f4e3d2c1b0a9f8e7d6c5b4a3f2e1d0c9b8a7f6e5d4c3b"

// fakeEngine writes a shell script standing in for docker or podman. Each
// call appends its arguments (and DOCKER_BUILDKIT) to the returned log and
// writes fakeID to the --iidfile. extra runs before exiting, with the first
// argument in $first.
func fakeEngine(t *testing.T, extra string) (binary, logFile string) {
	t.Helper()
	dir := t.TempDir()
	binary = filepath.Join(dir, "docker")
	logFile = filepath.Join(dir, "calls.log")

	script := fmt.Sprintf(`#!/bin/sh
echo "buildkit=${DOCKER_BUILDKIT:-unset} $*" >> %q
first="$1"
iid=""
while [ $# -gt 0 ]; do
  case "$1" in
    --iidfile) iid="$2"; shift ;;
  esac
  shift
done
if [ -n "$iid" ]; then
  printf '%%s\n' %q > "$iid"
fi
%s
exit 0
`, logFile, fakeID, extra)

	require.NoError(t, os.WriteFile(binary, []byte(script), 0o755))
	return binary, logFile
}

func calls(t *testing.T, logFile string) []string {
	t.Helper()
	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(content)), "\n")
}
