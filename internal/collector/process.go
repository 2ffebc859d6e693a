package collector

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

type processCollector struct{}

func newProcessCollector() *processCollector {
	return &processCollector{}
}

func (c *processCollector) Name() string {
	return "Running Process Count"
}

func (c *processCollector) Available() error {
	if _, err := process.Pids(); err != nil {
		return fmt.Errorf("process list: %w", err)
	}
	return nil
}

func (c *processCollector) Collect(ctx context.Context) (float64, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading process count: %w", err)
	}
	return float64(len(pids)), nil
}
