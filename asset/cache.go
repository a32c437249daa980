package asset

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/soundbox/audio"
)

// Decoder turns encoded audio bytes into a playable buffer. It is satisfied
// by *audio.Engine; tests substitute counting or failing implementations.
type Decoder interface {
	Decode(raw []byte) (*audio.Buffer, error)
}

// ButtonSound names one button's current sound handle. A zero Handle means
// the button has no sound.
type ButtonSound struct {
	ButtonID string
	Handle   HandleID
}

// Cache maps button ids to decoded playable buffers for low-latency
// overlapping playback. Sync keeps the map aligned with the active toy's
// button list; Lookup misses are not errors, callers fall back to a direct
// decode-and-play path.
type Cache struct {
	mu      sync.Mutex
	reg     *Registry
	dec     Decoder
	buffers map[string]*audio.Buffer
	// synced records the last handle decoded per button id. Handle
	// equality against this record is the sole sync trigger.
	synced map[string]HandleID
	// target records the newest handle requested per button id while a
	// decode is in flight; results for superseded handles are discarded.
	target map[string]HandleID
}

// NewCache creates an empty cache over the given registry and decoder.
func NewCache(reg *Registry, dec Decoder) *Cache {
	return &Cache{
		reg:     reg,
		dec:     dec,
		buffers: make(map[string]*audio.Buffer),
		synced:  make(map[string]HandleID),
		target:  make(map[string]HandleID),
	}
}

// Sync reconciles the cache with the given button list. Buttons whose
// handle differs from the last-synced record are fetched and decoded;
// buttons whose sound was removed (or that disappeared from the list) are
// evicted. Re-running Sync when nothing changed performs no work. A decode
// failure for one button is logged and never blocks the others.
func (c *Cache) Sync(sounds []ButtonSound) {
	type job struct {
		id     string
		handle HandleID
	}

	c.mu.Lock()
	live := make(map[string]bool, len(sounds))
	var jobs []job
	for _, s := range sounds {
		if s.Handle == "" {
			continue
		}
		live[s.ButtonID] = true
		if c.synced[s.ButtonID] == s.Handle {
			continue
		}
		c.target[s.ButtonID] = s.Handle
		jobs = append(jobs, job{id: s.ButtonID, handle: s.Handle})
	}
	for id := range c.synced {
		if !live[id] {
			delete(c.buffers, id)
			delete(c.synced, id)
			delete(c.target, id)
		}
	}
	c.mu.Unlock()

	for _, j := range jobs {
		buf, err := c.rebuild(j.handle)

		c.mu.Lock()
		if c.target[j.id] != j.handle {
			// A newer handle was requested while this decode ran;
			// the stale result must not overwrite it.
			c.mu.Unlock()
			logrus.WithFields(logrus.Fields{
				"function": "Cache.Sync",
				"button":   j.id,
				"handle":   string(j.handle),
			}).Debug("Discarding stale decode result")
			continue
		}
		if err != nil {
			delete(c.buffers, j.id)
		} else {
			c.buffers[j.id] = buf
		}
		c.synced[j.id] = j.handle
		c.mu.Unlock()

		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Cache.Sync",
				"button":   j.id,
				"handle":   string(j.handle),
				"error":    err.Error(),
			}).Warn("Failed to cache button sound, button skipped")
		}
	}
}

// rebuild fetches and decodes the payload behind a handle.
func (c *Cache) rebuild(h HandleID) (*audio.Buffer, error) {
	data, _, err := c.reg.Fetch(h)
	if err != nil {
		return nil, err
	}
	return c.dec.Decode(data)
}

// Lookup returns the decoded buffer for a button id. Absence is not an
// error.
func (c *Cache) Lookup(buttonID string) (*audio.Buffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf, ok := c.buffers[buttonID]
	return buf, ok
}

// Evict drops the cache entry and sync record for a button id.
func (c *Cache) Evict(buttonID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.buffers, buttonID)
	delete(c.synced, buttonID)
	delete(c.target, buttonID)
}

// Len returns the number of cached buffers.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffers)
}
