package queueservice

import "errors"

// ErrBlacklisted rejects queue admission for flagged players.
var ErrBlacklisted = errors.New("player is blacklisted")
