package fixtures

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charlieparkes/go-conftest/internal/env"
	"github.com/docker/docker/pkg/namesgenerator"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"go.uber.org/zap"
)

type DockerOpt func(*Docker)

func NewDocker(opts ...DockerOpt) *Docker {
	f := &Docker{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func DockerName(name string) DockerOpt {
	return func(f *Docker) {
		f.name = name
	}
}

func DockerNamePrefix(namePrefix string) DockerOpt {
	return func(f *Docker) {
		f.namePrefix = namePrefix
	}
}

func DockerNetworkName(networkName string) DockerOpt {
	return func(f *Docker) {
		f.networkName = networkName
	}
}

// Docker holds the dockertest pool and a network shared by container fixtures.
type Docker struct {
	BaseFixture
	name           string
	namePrefix     string
	networkName    string
	networkExisted bool
	pool           *dockertest.Pool
	network        *dockertest.Network
}

func (f *Docker) GetName() string {
	return f.name
}

func (f *Docker) GetNamePrefix() string {
	return f.namePrefix
}

func (f *Docker) GetNetworkName() string {
	return f.networkName
}

func (f *Docker) GetPool() *dockertest.Pool {
	return f.pool
}

func (f *Docker) GetNetwork() *dockertest.Network {
	return f.network
}

func (f *Docker) resolveNames() {
	if f.namePrefix == "" {
		if f.name != "" {
			f.namePrefix = f.name
		} else {
			f.namePrefix = env.Get().NamePrefix
		}
	}
	if f.name == "" {
		f.name = f.namePrefix + "_" + namesgenerator.GetRandomName(0)
	}
	if f.networkName == "" {
		f.networkName = f.name
	}
}

// SetUp is a no-op once the pool and network exist.
func (f *Docker) SetUp(ctx context.Context) error {
	if f.pool != nil && f.network != nil {
		return nil
	}
	f.resolveNames()

	var err error
	if f.pool, err = dockertest.NewPool(""); err != nil {
		return fmt.Errorf("failed to create docker pool: %w", err)
	}
	if err := f.pool.Client.Ping(); err != nil {
		return fmt.Errorf("docker daemon unreachable: %w", err)
	}
	if f.network, err = f.getOrCreateNetwork(); err != nil {
		return err
	}
	return nil
}

func (f *Docker) TearDown(context.Context) error {
	nw := f.network
	f.network = nil
	if nw == nil || f.networkExisted {
		return nil
	}
	return nw.Close()
}

func (f *Docker) getOrCreateNetwork() (*dockertest.Network, error) {
	ns, err := f.pool.Client.FilteredListNetworks(map[string]map[string]bool{
		"name": {f.networkName: true},
	})
	if err != nil {
		return nil, fmt.Errorf("error listing docker networks: %w", err)
	}
	f.networkExisted = len(ns) == 1
	if f.networkExisted {
		// Borrowed networks carry no pool; Close on them would disconnect every attached container.
		return &dockertest.Network{Network: &ns[0]}, nil
	}

	nw, err := f.pool.CreateNetwork(f.networkName)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker network: %w", err)
	}
	return nw, nil
}

func WaitForContainer(pool *dockertest.Pool, resource *dockertest.Resource) (int, error) {
	exitCode, err := pool.Client.WaitContainer(resource.Container.ID)
	if err != nil {
		err = fmt.Errorf("unable to wait for container: %w", err)
	}
	return exitCode, err
}

func GetHostIP(resource *dockertest.Resource, network *dockertest.Network) string {
	if network == nil {
		return ""
	}
	if n, ok := resource.Container.NetworkSettings.Networks[network.Network.Name]; ok {
		return n.IPAddress
	}
	return ""
}

func GetHostName(resource *dockertest.Resource) string {
	return resource.Container.Name[1:]
}

// GetContainerAddress picks the host a test dials: the container IP when we share its
// bridge network, the gateway when we run inside some other container, else localhost.
func GetContainerAddress(resource *dockertest.Resource, network *dockertest.Network) string {
	if UseBridgeNetwork(network) {
		return GetHostIP(resource, network)
	}
	if IsRunningInContainer() {
		if gw := resource.Container.NetworkSettings.Gateway; gw != "" {
			return gw
		}
		if network != nil {
			if nw, ok := resource.Container.NetworkSettings.Networks[network.Network.Name]; ok {
				return nw.Gateway
			}
		}
	}
	return "localhost"
}

// GetContainerTcpPort is port itself on a shared bridge network, the host mapping otherwise.
func GetContainerTcpPort(resource *dockertest.Resource, network *dockertest.Network, port string) string {
	if UseBridgeNetwork(network) {
		return port
	}
	return resource.GetPort(fmt.Sprintf("%s/tcp", port))
}

// UseBridgeNetwork is true when our hostname shows up among the network's containers.
func UseBridgeNetwork(network *dockertest.Network) bool {
	if network == nil || network.Network == nil {
		return false
	}
	hostname, err := os.Hostname()
	if err != nil {
		return false
	}
	for _, v := range network.Network.Containers {
		if v.Name == hostname {
			return true
		}
	}
	return false
}

// IsRunningInContainer only knows about docker (/.dockerenv).
func IsRunningInContainer() bool {
	_, err := os.Stat("/.dockerenv")
	if err == nil {
		return true
	}
	if !errors.Is(err, os.ErrNotExist) {
		zap.L().Warn("could not detect container runtime", zap.Error(err))
	}
	return false
}

func getLogs(log *zap.Logger, containerID string, pool *dockertest.Pool) string {
	var buf bytes.Buffer
	err := pool.Client.Logs(docker.LogsOptions{
		Container:    containerID,
		OutputStream: &buf,
		ErrorStream:  &buf,
		Stdout:       true,
		Stderr:       true,
		Timestamps:   true,
	})
	if err != nil {
		log.Warn("failed to read logs", zap.Error(err))
	}
	return buf.String()
}

func purge(log *zap.Logger, p *dockertest.Pool, r *dockertest.Resource) {
	defer wg.Done()
	if err := p.Purge(r); err != nil {
		log.Warn("failed to purge container", zap.String("container", GetHostName(r)), zap.Error(err))
	}
}
