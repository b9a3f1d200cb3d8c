package docker

import (
	"archive/tar"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/duffing/sortie/internal"
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"
)

type Image struct {
	Name string
}

type Client struct {
	client DockerClient
}

// NewClient creates a Client that wraps the provided Docker client interface.
func NewClient(dockerClient DockerClient) Client {
	return Client{
		client: dockerClient,
	}
}

// NewDefaultClient creates a Client with a real Docker client from the environment.
func NewDefaultClient() (Client, error) {
	cli, err := client.New(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return Client{}, fmt.Errorf("failed to create docker client: %w\nEnsure Docker is running and DOCKER_HOST is set correctly", err)
	}

	return NewClient(cli), nil
}

// Close closes the underlying Docker client connection.
func (c Client) Close() {
	c.client.Close()
}

// RemoveImage forcibly removes the named image from the daemon so the next
// build starts from a clean slate. Removal is best-effort: a missing image is
// the normal first-run case, so the caller should treat an error here as a
// warning, not a failure.
func (c Client) RemoveImage(ctx context.Context, imageName internal.ImageName) error {
	_, err := c.client.ImageRemove(ctx, string(imageName), client.ImageRemoveOptions{
		Force: true,
	})
	if err != nil {
		return fmt.Errorf("failed to remove image %q: %w", imageName, err)
	}

	return nil
}

// BuildImage builds a Docker image from the build context directory and tags
// it with the specified image name. The context is streamed to the daemon as a
// tar archive and the build output is streamed to the provided Writer. The
// Dockerfile may live inside the context (referenced by its relative path) or
// outside it, in which case it is injected into the archive as "Dockerfile".
// Returns an error if the context cannot be archived, the build fails, or the
// build output cannot be decoded.
func (c Client) BuildImage(ctx context.Context, dockerfilePath, contextDir string, imageName internal.ImageName, w internal.Writer) (Image, error) {
	dockerfileName, inject, err := resolveDockerfile(dockerfilePath, contextDir)
	if err != nil {
		return Image{}, err
	}

	pr, pw := io.Pipe()
	defer pr.Close()

	errChan := make(chan error, 1)

	go func() {
		tw := tar.NewWriter(pw)
		defer func() {
			tw.Close()
			pw.Close()
		}()

		if err := archiveContext(tw, contextDir); err != nil {
			errChan <- err
			return
		}

		if inject != nil {
			header := &tar.Header{
				Name: dockerfileName,
				Mode: 0644,
				Size: int64(len(inject)),
			}
			if err := tw.WriteHeader(header); err != nil {
				errChan <- fmt.Errorf("failed to write tar header for Dockerfile: %w", err)
				return
			}
			if _, err := tw.Write(inject); err != nil {
				errChan <- fmt.Errorf("failed to write Dockerfile to tar archive: %w", err)
				return
			}
		}
		errChan <- nil
	}()

	response, err := c.client.ImageBuild(ctx, pr, client.ImageBuildOptions{
		Dockerfile: dockerfileName,
		Tags:       []string{string(imageName)},
		Remove:     true,
	})
	if err != nil {
		return Image{}, fmt.Errorf("failed to build image %q: %w\nCheck Docker daemon logs for details", imageName, err)
	}
	defer response.Body.Close()

	// Check if archiving the context had an error
	select {
	case err := <-errChan:
		if err != nil {
			return Image{}, err
		}
	case <-ctx.Done():
		return Image{}, ctx.Err()
	default:
	}

	decoder := json.NewDecoder(response.Body)
	for decoder.More() {
		select {
		case <-ctx.Done():
			return Image{}, ctx.Err()
		default:
		}

		var output struct {
			Stream      string `json:"stream"`
			ErrorDetail struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"errorDetail"`
		}
		err := decoder.Decode(&output)
		if err != nil {
			return Image{}, fmt.Errorf("failed to decode build output: %w\nDocker may have returned malformed JSON", err)
		}

		if output.ErrorDetail.Code != 0 {
			return Image{}, fmt.Errorf("docker build failed: %s\nCheck your Dockerfile syntax and base image availability", output.ErrorDetail.Message)
		}

		w.Print(output.Stream)
	}

	return Image{
		Name: string(imageName),
	}, nil
}

// resolveDockerfile determines the name the Dockerfile is known by inside the
// build archive. When the file lives outside the context directory its
// contents are returned for injection into the archive.
func resolveDockerfile(dockerfilePath, contextDir string) (string, []byte, error) {
	rel, err := filepath.Rel(contextDir, dockerfilePath)
	if err == nil && !strings.HasPrefix(rel, "..") {
		if _, err := os.Stat(dockerfilePath); err != nil {
			return "", nil, fmt.Errorf("failed to read Dockerfile at %q: %w\nCheck that the file exists and is readable", dockerfilePath, err)
		}
		return filepath.ToSlash(rel), nil, nil
	}

	contents, err := os.ReadFile(dockerfilePath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read Dockerfile at %q: %w\nCheck that the file exists and is readable", dockerfilePath, err)
	}
	return "Dockerfile", contents, nil
}

// archiveContext writes the build context directory into the tar writer with
// slash-separated paths relative to the context root. Only directories and
// regular files are archived.
func archiveContext(tw *tar.Writer, contextDir string) error {
	return filepath.WalkDir(contextDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk build context %q: %w", contextDir, err)
		}

		rel, err := filepath.Rel(contextDir, path)
		if err != nil {
			return fmt.Errorf("failed to resolve build context path %q: %w", path, err)
		}
		if rel == "." {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %q: %w", path, err)
		}

		if !info.Mode().IsRegular() && !info.IsDir() {
			return nil
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("failed to build tar header for %q: %w", path, err)
		}
		header.Name = filepath.ToSlash(rel)

		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write tar header for %q: %w", path, err)
		}

		if info.IsDir() {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %q for archiving: %w", path, err)
		}
		defer file.Close()

		if _, err := io.Copy(tw, file); err != nil {
			return fmt.Errorf("failed to archive %q: %w", path, err)
		}

		return nil
	})
}

// CreateContainer creates a new Docker container with the specified configuration.
// The image's own entrypoint is always overridden with the supplied entrypoint,
// which points at the sortie executable inside the mounted project volume. The
// container is configured with TTY support, stdin attachment, environment
// variables, working directory, bind mounts, and network settings, and can
// reach the host via host.docker.internal. Returns a Container handle or an
// error if creation fails.
func (c Client) CreateContainer(ctx context.Context, sessionID internal.SessionID, image Image, entrypoint, args internal.Command, env internal.Environment, volumes []string, workingDir, network string, stopTimeout, ttyRetries int, retryDelay time.Duration) (Container, error) {
	response, err := c.client.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config: &container.Config{
			Image:        image.Name,
			Entrypoint:   []string(entrypoint),
			Cmd:          []string(args),
			Tty:          true,
			OpenStdin:    true,
			AttachStdin:  true,
			AttachStdout: true,
			AttachStderr: true,
			Env:          []string(env),
			WorkingDir:   workingDir,
		},
		HostConfig: &container.HostConfig{
			ExtraHosts: []string{
				"host.docker.internal:host-gateway",
			},
			Binds:       volumes,
			NetworkMode: container.NetworkMode(network),
		},
		Name:             string(sessionID),
		NetworkingConfig: nil,
		Platform:         nil,
	})
	if err != nil {
		return Container{}, fmt.Errorf("failed to create container %q from image %q: %w\nEnsure image exists and container config is valid", sessionID, image.Name, err)
	}

	return Container{
		ID:          response.ID,
		Name:        string(sessionID),
		client:      c.client,
		StopTimeout: stopTimeout,
		TTYRetries:  ttyRetries,
		RetryDelay:  retryDelay,
	}, nil
}

// Ping pings the Docker daemon and returns the API version if successful.
// Used by the integration tests to gate on daemon availability.
func (c Client) Ping(ctx context.Context) (string, error) {
	ping, err := c.client.Ping(ctx, client.PingOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to ping docker daemon: %w", err)
	}
	return ping.APIVersion, nil
}
