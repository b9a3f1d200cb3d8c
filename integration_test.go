//go:build integration
// +build integration

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/duffing/sortie/internal/docker"
	"github.com/stretchr/testify/require"
)

// TestLaunchWorkflow validates the complete launcher workflow:
// 1. Any previous local image is force-removed (tolerating absence)
// 2. The image rebuilds from the Dockerfile and build context
// 3. A container runs once in the foreground with bind mounts and an
//    overridden entrypoint
// 4. Cleanup removes the container
func TestLaunchWorkflow(t *testing.T) {
	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("Integration tests skipped")
	}

	client, err := docker.NewDefaultClient()
	require.NoError(t, err, "Docker daemon must be running for integration tests")
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	_, err = client.Ping(ctx)
	require.NoError(t, err, "Failed to ping Docker daemon")

	contextDir := t.TempDir()
	dockerfile := "FROM alpine:latest\nENTRYPOINT [\"/bin/false\"]\n"
	require.NoError(t, os.WriteFile(filepath.Join(contextDir, "Dockerfile"), []byte(dockerfile), 0644))

	t.Run("launch rebuilds and runs with an overridden entrypoint", func(t *testing.T) {
		err := run([]string{
			"sortie", "launch",
			"--image", "sortie-integration:latest",
			"--context", contextDir,
			"--entrypoint", "/bin/echo",
			"launched",
		}, []string{"TERM=xterm-256color", "COLORTERM=truecolor"})
		require.NoError(t, err)
	})

	t.Run("a second launch tolerates the existing image", func(t *testing.T) {
		err := run([]string{
			"sortie", "launch",
			"--image", "sortie-integration:latest",
			"--context", contextDir,
			"--entrypoint", "/bin/true",
		}, []string{"TERM=xterm-256color"})
		require.NoError(t, err)
	})
}
