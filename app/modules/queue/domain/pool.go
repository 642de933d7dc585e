package queuedomain

import (
	"sort"
	"sync"
	"time"

	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// RegionPool is the waiting list for one region, ordered by enqueue time.
// All operations are mutually exclusive under one mutex, which is what keeps
// an entry from being matched twice or removed twice. Regions are independent
// and never share a lock.
type RegionPool struct {
	region sharedtypes.Region

	mu      sync.Mutex
	entries []*Entry
	byUser  map[sharedtypes.UserID]*Entry
}

// NewRegionPool creates an empty pool for the region.
func NewRegionPool(region sharedtypes.Region) *RegionPool {
	return &RegionPool{
		region: region,
		byUser: make(map[sharedtypes.UserID]*Entry),
	}
}

// Region returns the pool's region.
func (p *RegionPool) Region() sharedtypes.Region {
	return p.region
}

// Enqueue appends an entry. Fails with ErrAlreadyQueued if the player already
// has a live entry in this pool.
func (p *RegionPool) Enqueue(entry *Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byUser[entry.UserID]; ok {
		return ErrAlreadyQueued
	}
	p.entries = append(p.entries, entry)
	p.byUser[entry.UserID] = entry
	return nil
}

// Requeue reinserts an entry preserving its original EnqueuedAt ordering, so
// players rolled back after a transient failure lose no queue position.
func (p *RegionPool) Requeue(entry *Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byUser[entry.UserID]; ok {
		return ErrAlreadyQueued
	}
	idx := sort.Search(len(p.entries), func(i int) bool {
		return p.entries[i].EnqueuedAt.After(entry.EnqueuedAt)
	})
	p.entries = append(p.entries, nil)
	copy(p.entries[idx+1:], p.entries[idx:])
	p.entries[idx] = entry
	p.byUser[entry.UserID] = entry
	return nil
}

// CancelUser removes the player's entry if still present. A false return is
// not an error: the entry was already matched or expired.
func (p *RegionPool) CancelUser(userID sharedtypes.UserID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.byUser[userID]
	if !ok {
		return false
	}
	p.removeLocked(entry)
	return true
}

// Snapshot returns a read-only copy of the waiting list in enqueue order.
func (p *RegionPool) Snapshot() []*Entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Position returns the player's 1-based place in line.
func (p *RegionPool) Position(userID sharedtypes.UserID) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byUser[userID]; !ok {
		return 0, false
	}
	for i, e := range p.entries {
		if e.UserID == userID {
			return i + 1, true
		}
	}
	return 0, false
}

// Len returns the number of waiting entries.
func (p *RegionPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// RemoveMany removes a specific set of entries atomically. If any entry is no
// longer present (a concurrent cancel or match raced this batch) nothing is
// removed and ErrStaleEntry is returned; the caller retries pairing from a
// fresh snapshot.
func (p *RegionPool) RemoveMany(entries []*Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, entry := range entries {
		if current, ok := p.byUser[entry.UserID]; !ok || current != entry {
			return ErrStaleEntry
		}
	}
	for _, entry := range entries {
		p.removeLocked(entry)
	}
	return nil
}

// ExpireBefore removes and returns every entry whose deadline passed.
func (p *RegionPool) ExpireBefore(now time.Time) []*Entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	var expired []*Entry
	for _, entry := range p.entries {
		if entry.Expired(now) {
			expired = append(expired, entry)
		}
	}
	for _, entry := range expired {
		p.removeLocked(entry)
	}
	return expired
}

func (p *RegionPool) removeLocked(entry *Entry) {
	delete(p.byUser, entry.UserID)
	for i, e := range p.entries {
		if e == entry {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			return
		}
	}
}
