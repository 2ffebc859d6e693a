// Package collector reads host metrics via gopsutil. Each collector yields
// one numeric reading per invocation.
package collector

import (
	"context"
	"fmt"

	"github.com/stiventc/hostmon/internal/config"
)

// Collector produces a single numeric reading for one metric.
type Collector interface {
	// Name is the human-readable description used in journal and alert text.
	Name() string
	// Available reports whether the collector can run on this host. Callers
	// check it once at wiring time and exclude collectors that fail.
	Available() error
	// Collect returns the current reading, or an error when the metric is
	// unavailable this cycle.
	Collect(ctx context.Context) (float64, error)
}

// New returns the appropriate Collector for the given metric configuration.
func New(m config.Metric) (Collector, error) {
	switch m.Name {
	case "disk_usage":
		path := m.Path
		if path == "" {
			path = "/"
		}
		return newDiskCollector(path), nil
	case "memory_usage":
		return newMemoryCollector(), nil
	case "process_count":
		return newProcessCollector(), nil
	case "user_count":
		return NewUsersCollector(), nil
	default:
		return nil, fmt.Errorf("unknown metric %q", m.Name)
	}
}
