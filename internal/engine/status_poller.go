package engine

import (
	"context"
	"time"

	"github.com/StarFreedomX/ktv-casting-go/internal/loglevel"
	"github.com/StarFreedomX/ktv-casting-go/internal/queuekey"
)

// runStatusPoller ticks once a second for the lifetime of ctx, reading the
// renderer's position and triggering auto-advance when the song is within
// 2s of its cached total duration. The position and duration read here are
// not stored or passed to any progress callback; FFI callers read them
// through QueryProgress and QueryTotalDuration instead.
func runStatusPoller(ctx context.Context, ec *Context) {
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if advanced := pollOnce(ctx, ec); advanced {
				select {
				case <-ctx.Done():
					return
				case <-time.After(autoAdvanceCooldown):
				}
			}
		}
	}
}

// pollOnce performs a single StatusPoller tick and reports whether it
// triggered an auto-advance.
func pollOnce(ctx context.Context, ec *Context) bool {
	state := ec.playlist.State()
	if state.Singing == nil {
		return false
	}
	key := queuekey.FromURL(state.Singing.URL)

	total, _ := ec.durations.Get(key)

	info, err := ec.soap.GetPositionInfo(ctx, ec.device.Target)
	if err != nil {
		loglevel.Warnf("[engine] status poll: GetPositionInfo failed: %v", err)
		return false
	}
	current := info.CurrentSeconds

	if total > 0 && current > 5 && total > current && total-current <= 2 {
		if err := ec.playlist.NextSong(ctx); err != nil {
			loglevel.Warnf("[engine] status poll: auto-advance NextSong failed: %v", err)
		}
		return true
	}
	return false
}
