package metrics

import (
	"fmt"
	"net"

	"github.com/DataDog/datadog-go/statsd"
)

const namespace = "payroll_keeper."

// NewStatsdClient returns a no-op client when host is empty.
func NewStatsdClient(host, port string) (statsd.ClientInterface, error) {
	if host == "" {
		return &statsd.NoOpClient{}, nil
	}
	if port == "" {
		port = "8125"
	}
	client, err := statsd.New(net.JoinHostPort(host, port), statsd.WithNamespace(namespace))
	if err != nil {
		return nil, fmt.Errorf("failed to create statsd client: %w", err)
	}
	return client, nil
}
