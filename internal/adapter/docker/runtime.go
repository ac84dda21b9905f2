// Package docker adapts the Docker Engine API to the compute.ContainerRuntime
// port: inspect/create/start/stop/exec plus the volume and network probes the
// manager needs. Translation from the engine-neutral ContainerSpec happens in
// pure helpers so it stays testable without a daemon.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"corral"
	"corral/internal/compute"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

var _ compute.ContainerRuntime = (*Runtime)(nil)

// Runtime implements compute.ContainerRuntime using the Docker Engine API.
type Runtime struct {
	cli *client.Client
}

// NewRuntime creates a Runtime with a new Docker client from the environment.
func NewRuntime() (*Runtime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &Runtime{cli: cli}, nil
}

// NewRuntimeFromClient wraps an existing Docker client.
func NewRuntimeFromClient(cli *client.Client) *Runtime {
	return &Runtime{cli: cli}
}

func (r *Runtime) Ping(ctx context.Context) error {
	if _, err := r.cli.Ping(ctx); err != nil {
		if client.IsErrConnectionFailed(err) {
			return fmt.Errorf("docker daemon unreachable: %w", err)
		}
		return fmt.Errorf("ping docker daemon: %w", err)
	}
	return nil
}

func (r *Runtime) ContainerInspect(ctx context.Context, name string) (compute.ContainerDetail, error) {
	info, err := r.cli.ContainerInspect(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return compute.ContainerDetail{Exists: false}, nil
		}
		return compute.ContainerDetail{}, fmt.Errorf("inspect container %q: %w", name, err)
	}
	detail := compute.ContainerDetail{Exists: true, ID: info.ID}
	if info.State != nil {
		detail.Running = info.State.Running
	}
	if info.Config != nil {
		detail.Labels = info.Config.Labels
	}
	return detail, nil
}

// ContainerCreate creates a stopped container for the spec. If the image is
// not found locally, it pulls the image and retries the create.
func (r *Runtime) ContainerCreate(ctx context.Context, spec compute.ContainerSpec) (string, error) {
	cc, hc := buildCreateConfig(spec)
	resp, err := r.cli.ContainerCreate(ctx, cc, hc, nil, (*ocispec.Platform)(nil), spec.Name)
	if err != nil {
		if !errdefs.IsNotFound(err) {
			return "", fmt.Errorf("create container %q: %w", spec.Name, err)
		}
		if err := pullImage(ctx, r.cli, spec.Image); err != nil {
			return "", err
		}
		if resp, err = r.cli.ContainerCreate(ctx, cc, hc, nil, nil, spec.Name); err != nil {
			return "", fmt.Errorf("create container %q after pull: %w", spec.Name, err)
		}
	}
	return resp.ID, nil
}

func (r *Runtime) ContainerStart(ctx context.Context, name string) error {
	if err := r.cli.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return fmt.Errorf("start container %q: %w", name, err)
	}
	return nil
}

func (r *Runtime) ContainerStop(ctx context.Context, name string, timeout time.Duration) error {
	opts := container.StopOptions{}
	if timeout > 0 {
		seconds := int(timeout.Seconds())
		opts.Timeout = &seconds
	}
	if err := r.cli.ContainerStop(ctx, name, opts); err != nil {
		return fmt.Errorf("stop container %q: %w", name, err)
	}
	return nil
}

// ContainerExec runs a command inside the named container and returns its
// stdout. Stderr is captured separately for error reporting.
func (r *Runtime) ContainerExec(ctx context.Context, name string, cmd []string) (string, error) {
	execCfg := container.ExecOptions{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	}

	resp, err := r.cli.ContainerExecCreate(ctx, name, execCfg)
	if err != nil {
		return "", fmt.Errorf("create exec %v in %q: %w", cmd, name, err)
	}

	attach, err := r.cli.ContainerExecAttach(ctx, resp.ID, container.ExecAttachOptions{})
	if err != nil {
		return "", fmt.Errorf("attach exec %v in %q: %w", cmd, name, err)
	}
	defer attach.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attach.Reader); err != nil {
		return "", fmt.Errorf("read exec output %v: %w", cmd, err)
	}

	info, err := r.cli.ContainerExecInspect(ctx, resp.ID)
	if err != nil {
		return "", fmt.Errorf("inspect exec %v: %w", cmd, err)
	}
	if info.ExitCode != 0 {
		return "", fmt.Errorf("exec %v in %q: exit code %d: %s",
			cmd, name, info.ExitCode, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}

func (r *Runtime) EnsureVolume(ctx context.Context, name string) error {
	_, err := r.cli.VolumeInspect(ctx, name)
	if err == nil {
		return nil
	}
	if !errdefs.IsNotFound(err) {
		return fmt.Errorf("inspect volume %q: %w", name, err)
	}
	if _, err := r.cli.VolumeCreate(ctx, volume.CreateOptions{Name: name}); err != nil {
		return fmt.Errorf("create volume %q: %w", name, err)
	}
	return nil
}

// CurrentContainerNetwork inspects the container this process runs in, using
// the hostname Docker assigns as the container id. Any failure means the
// process is not containerized (or the hostname was overridden) and the
// answer is simply "".
func (r *Runtime) CurrentContainerNetwork(ctx context.Context) (string, error) {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "", nil
	}
	info, err := r.cli.ContainerInspect(ctx, hostname)
	if err != nil {
		return "", nil
	}
	if info.NetworkSettings == nil || len(info.NetworkSettings.Networks) == 0 {
		return "", nil
	}
	names := make([]string, 0, len(info.NetworkSettings.Networks))
	for name := range info.NetworkSettings.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names[0], nil
}

func (r *Runtime) Close() error {
	return r.cli.Close()
}

// pullImage pulls a Docker image and drains the response to completion.
func pullImage(ctx context.Context, cli client.APIClient, img string) error {
	slog.Info("Pulling image.", "image", img)
	resp, err := cli.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", img, err)
	}
	defer resp.Close()
	if _, err := io.Copy(io.Discard, resp); err != nil {
		return fmt.Errorf("pull image %s: read response: %w", img, err)
	}
	return nil
}

// buildCreateConfig translates the engine-neutral spec into Docker create
// configuration. Instances restart with the daemon unless explicitly
// stopped, which keeps lifecycle state stable across host reboots without
// the manager's involvement.
func buildCreateConfig(spec compute.ContainerSpec) (*container.Config, *container.HostConfig) {
	cc := &container.Config{
		Image:  spec.Image,
		Env:    append([]string(nil), spec.Env...),
		Labels: spec.Labels,
	}
	hc := &container.HostConfig{
		NetworkMode: container.NetworkMode(spec.Network),
		RestartPolicy: container.RestartPolicy{
			Name: container.RestartPolicyUnlessStopped,
		},
	}

	if spec.VolumeName != "" {
		hc.Mounts = append(hc.Mounts, mount.Mount{
			Type:   mount.TypeVolume,
			Source: spec.VolumeName,
			Target: spec.VolumeTarget,
		})
	}

	if spec.HostPort > 0 {
		port := nat.Port(strconv.Itoa(spec.ContainerPort) + "/tcp")
		cc.ExposedPorts = nat.PortSet{port: struct{}{}}
		hc.PortBindings = nat.PortMap{
			port: {{HostIP: "127.0.0.1", HostPort: strconv.Itoa(spec.HostPort)}},
		}
	}

	if spec.GPU != nil {
		attachGPU(cc, hc, *spec.GPU)
	}
	return cc, hc
}

// attachGPU wires one GPU device into the create configuration. NVIDIA goes
// through the nvidia container runtime's device requests; AMD exposes the
// kernel driver nodes directly and scopes visibility through the ROCm
// environment.
func attachGPU(cc *container.Config, hc *container.HostConfig, gpu compute.GPUAttachment) {
	switch gpu.Backend {
	case corral.GPUBackendAMD:
		hc.Devices = append(hc.Devices,
			container.DeviceMapping{PathOnHost: "/dev/kfd", PathInContainer: "/dev/kfd", CgroupPermissions: "rwm"},
			container.DeviceMapping{PathOnHost: "/dev/dri", PathInContainer: "/dev/dri", CgroupPermissions: "rwm"},
		)
		hc.GroupAdd = append(hc.GroupAdd, "video", "render")
		cc.Env = append(cc.Env,
			"HIP_VISIBLE_DEVICES="+gpu.DeviceID,
			"ROCR_VISIBLE_DEVICES="+gpu.DeviceID,
		)
	default:
		hc.DeviceRequests = append(hc.DeviceRequests, container.DeviceRequest{
			Driver:       "nvidia",
			DeviceIDs:    []string{gpu.DeviceID},
			Capabilities: [][]string{{"gpu"}},
		})
	}
}
