package queuedomain

import "errors"

var (
	// ErrAlreadyQueued rejects a second live entry for the same player.
	ErrAlreadyQueued = errors.New("player already queued")
	// ErrStaleEntry means a batch removal raced a concurrent removal; the
	// caller must retry pairing from a fresh snapshot. Never surfaced.
	ErrStaleEntry = errors.New("stale queue entry")
)
