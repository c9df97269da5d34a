package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/StarFreedomX/ktv-casting-go/internal/loglevel"
)

// Cache holds the last discovery result and refreshes it on a cron
// schedule, so that repeated callers of the admin surface's /api/devices
// don't each pay a fresh SSDP window. The CLI's device-picker prompt does
// not use it; it runs its own discovery through ffi.SearchDevices.
type Cache struct {
	mu       sync.RWMutex
	devices  []*Device
	lastScan time.Time
	window   time.Duration

	cronEngine *cron.Cron
}

// NewCache creates a discovery cache that refreshes every time schedule
// fires (a robfig/cron expression, e.g. "@every 5m"). Call Start to begin
// the schedule; Refresh can always be called directly for an on-demand
// scan.
func NewCache(schedule string, window time.Duration) (*Cache, error) {
	c := &Cache{window: window}
	cronEngine := cron.New()
	if _, err := cronEngine.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), window+2*time.Second)
		defer cancel()
		if err := c.Refresh(ctx); err != nil {
			loglevel.Warnf("[discovery] scheduled refresh failed: %v", err)
		}
	}); err != nil {
		return nil, err
	}
	c.cronEngine = cronEngine
	return c, nil
}

// Start begins the cron schedule. Safe to call once.
func (c *Cache) Start() {
	c.cronEngine.Start()
}

// Stop halts the cron schedule.
func (c *Cache) Stop() {
	c.cronEngine.Stop()
}

// Refresh performs a fresh discovery scan and replaces the cached result.
func (c *Cache) Refresh(ctx context.Context) error {
	devices, err := Discover(ctx, c.window)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.devices = devices
	c.lastScan = time.Now()
	c.mu.Unlock()
	return nil
}

// Devices returns the cached device list, triggering a synchronous
// refresh first if no scan has ever completed.
func (c *Cache) Devices(ctx context.Context) ([]*Device, error) {
	c.mu.RLock()
	scanned := !c.lastScan.IsZero()
	devices := c.devices
	c.mu.RUnlock()

	if !scanned {
		if err := c.Refresh(ctx); err != nil {
			return nil, err
		}
		c.mu.RLock()
		devices = c.devices
		c.mu.RUnlock()
	}
	return devices, nil
}
