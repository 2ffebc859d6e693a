package collector

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/disk"
)

type diskCollector struct {
	path string
}

func newDiskCollector(path string) *diskCollector {
	return &diskCollector{path: path}
}

func (c *diskCollector) Name() string {
	return fmt.Sprintf("Disk Usage (%%) on %s", c.path)
}

func (c *diskCollector) Available() error {
	if _, err := os.Stat(c.path); err != nil {
		return fmt.Errorf("disk path %q: %w", c.path, err)
	}
	return nil
}

func (c *diskCollector) Collect(ctx context.Context) (float64, error) {
	usage, err := disk.UsageWithContext(ctx, c.path)
	if err != nil {
		return 0, fmt.Errorf("reading disk usage for %q: %w", c.path, err)
	}
	return usage.UsedPercent, nil
}
