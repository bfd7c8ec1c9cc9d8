package consul

import (
	"fmt"
	"net"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"
)

func NewClient(addr string) (*consulapi.Client, error) {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return client, nil
}

// RegisterService registers name at host and the port of listenAddr with an
// HTTP health check against /ping. It returns the service id to deregister.
func RegisterService(client *consulapi.Client, name, host, listenAddr string) (string, error) {
	_, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return "", fmt.Errorf("invalid listen address %q: %w", listenAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", fmt.Errorf("invalid listen port %q: %w", portStr, err)
	}

	id := fmt.Sprintf("%s-%s-%d", name, host, port)
	reg := &consulapi.AgentServiceRegistration{
		ID:      id,
		Name:    name,
		Address: host,
		Port:    port,
		Tags:    []string{"http", "storefront"},
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s/ping", net.JoinHostPort(host, portStr)),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	if err := client.Agent().ServiceRegister(reg); err != nil {
		return "", fmt.Errorf("failed to register %s with consul: %w", name, err)
	}
	return id, nil
}

func DeregisterService(client *consulapi.Client, id string) error {
	if err := client.Agent().ServiceDeregister(id); err != nil {
		return fmt.Errorf("failed to deregister %s from consul: %w", id, err)
	}
	return nil
}
