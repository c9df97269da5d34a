package engine

import (
	"context"

	"github.com/StarFreedomX/ktv-casting-go/internal/apperrors"
	"github.com/StarFreedomX/ktv-casting-go/internal/dlna/soap"
	"github.com/StarFreedomX/ktv-casting-go/internal/queuekey"
)

// Sentinels returned when no engine context is bound, matching the FFI
// surface's "no panic across the boundary" rule.
const (
	SentinelProgress = -1
	SentinelDuration = 0
	SentinelToggle   = -1
	SentinelVolume   = -1
)

// IsInitialized reports whether an engine context is currently bound.
func IsInitialized() bool {
	cellMu.RLock()
	defer cellMu.RUnlock()
	return cell != nil
}

func current() (*Context, error) {
	cellMu.RLock()
	defer cellMu.RUnlock()
	if cell == nil {
		return nil, apperrors.NewNotInitializedError()
	}
	return cell, nil
}

// TogglePause flips playback state and issues the corresponding Play or
// Pause action. isPlaying is the source of truth; the renderer's own
// GetTransportInfo is consulted only during Start's initialization, not
// here. Returns 1 (now playing), 0 (now paused), or -1 on error.
func TogglePause(ctx context.Context) int {
	ec, err := current()
	if err != nil {
		return SentinelToggle
	}
	if ec.isPlaying.Load() {
		if err := ec.soap.Pause(ctx, ec.device.Target); err != nil {
			return SentinelToggle
		}
		ec.isPlaying.Store(false)
		return 0
	}
	if err := ec.soap.Play(ctx, ec.device.Target); err != nil {
		return SentinelToggle
	}
	ec.isPlaying.Store(true)
	return 1
}

// SetVolume sets the renderer's master volume, clamping to [0,100], and
// returns the clamped level or -1 on error.
func SetVolume(ctx context.Context, level int) int {
	ec, err := current()
	if err != nil {
		return SentinelVolume
	}
	clamped := soap.ClampVolume(level)
	if err := ec.soap.SetVolume(ctx, ec.device.Target, clamped); err != nil {
		return SentinelVolume
	}
	return clamped
}

// GetVolume reads the renderer's master volume, or -1 on error.
func GetVolume(ctx context.Context) int {
	ec, err := current()
	if err != nil {
		return SentinelVolume
	}
	info, err := ec.soap.GetVolume(ctx, ec.device.Target)
	if err != nil {
		return SentinelVolume
	}
	return info.CurrentVolume
}

// Seek issues a relative-time seek to the given offset in whole seconds.
func Seek(ctx context.Context, seconds int) error {
	ec, err := current()
	if err != nil {
		return err
	}
	return ec.soap.Seek(ctx, ec.device.Target, seconds)
}

// NextSong asks the bound playlist manager to advance to the next queue
// entry.
func NextSong(ctx context.Context) error {
	ec, err := current()
	if err != nil {
		return err
	}
	return ec.playlist.NextSong(ctx)
}

// QueryProgress returns the renderer's current position in seconds, or
// -1 if no engine context is bound or the position read fails.
func QueryProgress(ctx context.Context) int {
	ec, err := current()
	if err != nil {
		return SentinelProgress
	}
	info, err := ec.soap.GetPositionInfo(ctx, ec.device.Target)
	if err != nil {
		return SentinelProgress
	}
	return info.CurrentSeconds
}

// QueryTotalDuration returns the cached duration for the currently
// singing entry, or 0 if unset or no engine context is bound.
func QueryTotalDuration() int {
	ec, err := current()
	if err != nil {
		return SentinelDuration
	}
	state := ec.playlist.State()
	if state.Singing == nil {
		return SentinelDuration
	}
	key := queuekey.FromURL(state.Singing.URL)
	seconds, ok := ec.durations.Get(key)
	if !ok {
		return SentinelDuration
	}
	return seconds
}

// GetCurrentSongTitle returns the title of the currently singing entry,
// or "" if unset or no engine context is bound.
func GetCurrentSongTitle() string {
	ec, err := current()
	if err != nil {
		return ""
	}
	title, _ := ec.songTitle.Load().(string)
	return title
}

// IsPlaying reports the locally tracked playback state, or false if no
// engine context is bound.
func IsPlaying() bool {
	ec, err := current()
	if err != nil {
		return false
	}
	return ec.isPlaying.Load()
}
