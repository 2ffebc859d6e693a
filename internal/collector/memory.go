package collector

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
)

type memoryCollector struct{}

func newMemoryCollector() *memoryCollector {
	return &memoryCollector{}
}

func (c *memoryCollector) Name() string {
	return "Memory Usage (%)"
}

func (c *memoryCollector) Available() error {
	if _, err := mem.VirtualMemory(); err != nil {
		return fmt.Errorf("virtual memory stats: %w", err)
	}
	return nil
}

func (c *memoryCollector) Collect(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading memory usage: %w", err)
	}
	return vm.UsedPercent, nil
}
