// Package accessory runs and reclaims the container executors assigned to
// a peer, and uploads their results once they exit.
package accessory

import (
	"bytes"
	"context"
	"net/http"

	docker "github.com/fsouza/go-dockerclient"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/eclipse-opendut/opendut-carl/pkg/colog"
	"github.com/eclipse-opendut/opendut-carl/pkg/entity"
)

func containerName(id entity.Executor) string {
	if id.Container != nil && id.Container.Name != "" {
		return id.Container.Name
	}
	return "opendut-" + id.ID.String()
}

// Runner manages the lifecycle of container-kind executors on the local
// Docker daemon.
type Runner struct {
	client *docker.Client
}

func NewRunner() (*Runner, error) {
	client, err := docker.NewClientFromEnv()
	if err != nil {
		return nil, errors.Wrap(err, "connect to docker daemon")
	}
	return &Runner{client: client}, nil
}

// Start pulls the executor's image if necessary and runs it detached.
func (r *Runner) Start(ex entity.Executor) error {
	if ex.Kind != entity.ExecutorContainer || ex.Container == nil {
		return errors.New("executor is not a container executor")
	}
	c := ex.Container

	if err := r.client.PullImage(docker.PullImageOptions{Repository: c.Image}, docker.AuthConfiguration{}); err != nil {
		return errors.Wrapf(err, "pull image %s", c.Image)
	}

	env := make([]string, 0, len(c.Envs))
	for k, v := range c.Envs {
		env = append(env, k+"="+v)
	}

	container, err := r.client.CreateContainer(docker.CreateContainerOptions{
		Name: containerName(ex),
		Config: &docker.Config{
			Image: c.Image,
			Env:   env,
			Cmd:   append([]string{c.Command}, c.Args...),
		},
		HostConfig: &docker.HostConfig{
			Binds:   c.Volumes,
			Devices: toDeviceMappings(c.Devices),
		},
	})
	if err != nil {
		return errors.Wrapf(err, "create container for executor %s", ex.ID)
	}

	if err := r.client.StartContainer(container.ID, nil); err != nil {
		return errors.Wrapf(err, "start container %s", container.ID)
	}
	colog.Info("started executor", zap.String("executor", ex.ID.String()), zap.String("image", c.Image))
	return nil
}

func toDeviceMappings(devices []string) []docker.Device {
	out := make([]docker.Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, docker.Device{PathOnHost: d, PathInContainer: d, CgroupPermissions: "rwm"})
	}
	return out
}

// Stop stops and removes an executor's container.
func (r *Runner) Stop(ex entity.Executor) error {
	name := containerName(ex)
	if err := r.client.StopContainer(name, 10); err != nil {
		if _, ok := err.(*docker.NoSuchContainer); ok {
			return nil
		}
		return errors.Wrapf(err, "stop container %s", name)
	}
	return errors.Wrapf(r.client.RemoveContainer(docker.RemoveContainerOptions{ID: name}), "remove container %s", name)
}

// UploadResults reads an executor's container logs and POSTs them to its
// configured ResultsURL, if any.
func (r *Runner) UploadResults(ctx context.Context, ex entity.Executor) error {
	if ex.ResultsURL == "" {
		return nil
	}
	var buf bytes.Buffer
	err := r.client.Logs(docker.LogsOptions{
		Context:      ctx,
		Container:    containerName(ex),
		OutputStream: &buf,
		ErrorStream:  &buf,
		Stdout:       true,
		Stderr:       true,
	})
	if err != nil {
		return errors.Wrapf(err, "collect logs for executor %s", ex.ID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ex.ResultsURL, &buf)
	if err != nil {
		return errors.Wrap(err, "build results upload request")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "upload executor results")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.Errorf("results upload returned %s", resp.Status)
	}
	colog.Infof("uploaded %s of results for executor %s", humanize.Bytes(uint64(buf.Len())), ex.ID)
	return nil
}
