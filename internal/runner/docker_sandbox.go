package runner

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
)

// DockerConfig holds container settings for the docker sandbox
type DockerConfig struct {
	Image    string
	MemoryMB int
	CPULimit float64
	PidLimit int64
}

// DefaultDockerConfig returns the default docker sandbox settings
func DefaultDockerConfig() DockerConfig {
	return DockerConfig{
		Image:    "python:3.12-alpine",
		MemoryMB: 256,
		CPULimit: 0.5,
		PidLimit: 64,
	}
}

// DockerSandbox runs every execution in a fresh, network-less container
type DockerSandbox struct {
	client *client.Client
	config DockerConfig
}

// NewDockerSandbox connects to the docker daemon from the environment
func NewDockerSandbox(cfg DockerConfig) (*DockerSandbox, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("docker not reachable: %w", err)
	}

	return &DockerSandbox{client: cli, config: cfg}, nil
}

// Close closes the docker client
func (s *DockerSandbox) Close() error {
	return s.client.Close()
}

func (s *DockerSandbox) Execute(ctx context.Context, code, stdin string, limits Limits) domain.ExecutionResult {
	limits = normalizeLimits(limits)

	if err := s.ensureImage(ctx, s.config.Image); err != nil {
		slog.Error("sandbox image unavailable", "image", s.config.Image, "error", err)
		return failedResult(fmt.Sprintf("sandbox setup failed: %v", err))
	}

	id, err := s.createContainer(ctx)
	if err != nil {
		slog.Error("sandbox container create failed", "error", err)
		return failedResult(fmt.Sprintf("sandbox setup failed: %v", err))
	}
	// Removal must happen even when ctx is already done.
	defer func() {
		rmCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.client.ContainerRemove(rmCtx, id, container.RemoveOptions{Force: true}); err != nil {
			slog.Warn("sandbox container remove failed", "container", id, "error", err)
		}
	}()

	if err := s.copySource(ctx, id, code); err != nil {
		return failedResult(fmt.Sprintf("sandbox setup failed: %v", err))
	}

	attach, err := s.client.ContainerAttach(ctx, id, container.AttachOptions{
		Stream: true,
		Stdin:  true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return failedResult(fmt.Sprintf("sandbox attach failed: %v", err))
	}
	defer attach.Close()

	runCtx, cancel := context.WithTimeout(ctx, limits.Timeout)
	defer cancel()

	start := time.Now()
	if err := s.client.ContainerStart(runCtx, id, container.StartOptions{}); err != nil {
		return failedResult(fmt.Sprintf("sandbox start failed: %v", err))
	}

	go func() {
		_, _ = io.Copy(attach.Conn, bytes.NewReader([]byte(stdin)))
		_ = attach.CloseWrite()
	}()

	out := newCappedOutput(limits.MaxOutputBytes)
	copied := make(chan struct{})
	go func() {
		defer close(copied)
		_, _ = stdcopy.StdCopy(out.Stdout(), out.Stderr(), attach.Reader)
	}()

	waitCh, errCh := s.client.ContainerWait(runCtx, id, container.WaitConditionNotRunning)
	var exitCode int
	select {
	case res := <-waitCh:
		exitCode = int(res.StatusCode)
	case err := <-errCh:
		wall := time.Since(start)
		s.kill(id)
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return timeoutResult(wall, 0)
		}
		if ctx.Err() != nil {
			r := failedResult("execution cancelled")
			r.WallTime = wall
			return r
		}
		return failedResult(fmt.Sprintf("sandbox wait failed: %v", err))
	}
	wall := time.Since(start)

	select {
	case <-copied:
	case <-time.After(time.Second):
	}

	stdout, stderr := out.Result()
	return buildResult(exitCode, stdout, stderr, out.Truncated(), wall, 0)
}

func (s *DockerSandbox) createContainer(ctx context.Context) (string, error) {
	containerCfg := &container.Config{
		Image:           s.config.Image,
		Cmd:             []string{"python3", SourceFileName},
		WorkingDir:      "/workspace",
		NetworkDisabled: true,
		OpenStdin:       true,
		StdinOnce:       true,
		AttachStdin:     true,
		AttachStdout:    true,
		AttachStderr:    true,
		Env:             []string{"PYTHONDONTWRITEBYTECODE=1", "PYTHONIOENCODING=utf-8"},
		Labels: map[string]string{
			"hintsys.sandbox": "true",
		},
	}

	pids := s.config.PidLimit
	hostCfg := &container.HostConfig{
		Resources: container.Resources{
			Memory:    int64(s.config.MemoryMB) * 1024 * 1024,
			NanoCPUs:  int64(s.config.CPULimit * 1e9),
			PidsLimit: &pids,
		},
		ReadonlyRootfs: false,
	}

	resp, err := s.client.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}
	return resp.ID, nil
}

func (s *DockerSandbox) copySource(ctx context.Context, id, code string) error {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	header := &tar.Header{
		Name: SourceFileName,
		Mode: 0644,
		Size: int64(len(code)),
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write tar header: %w", err)
	}
	if _, err := tw.Write([]byte(code)); err != nil {
		return fmt.Errorf("write tar content: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}

	return s.client.CopyToContainer(ctx, id, "/workspace", &buf, container.CopyToContainerOptions{})
}

func (s *DockerSandbox) kill(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.client.ContainerKill(ctx, id, "KILL")
}

func (s *DockerSandbox) ensureImage(ctx context.Context, img string) error {
	if _, err := s.client.ImageInspect(ctx, img); err == nil {
		return nil
	}

	reader, err := s.client.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", img, err)
	}
	defer reader.Close()
	_, _ = io.Copy(io.Discard, reader)
	return nil
}

var _ Sandbox = (*DockerSandbox)(nil)
