package infrastructure

import (
	"container/list"
	"strconv"
	"sync"
	"time"
)

type seenEntry struct {
	at      time.Time
	element *list.Element
}

// UpdateDeduper remembers recently processed platform update ids so that
// redelivered webhooks are acknowledged without being handled twice.
// Entries expire after ttl; when full, the oldest entry is evicted.
type UpdateDeduper struct {
	mu        sync.Mutex
	seen      map[string]*seenEntry
	order     *list.List // oldest at front
	ttl       time.Duration
	maxSize   int
	now       func() time.Time
	done      chan struct{}
	closeOnce sync.Once
}

func NewUpdateDeduper(ttl time.Duration, maxSize int) *UpdateDeduper {
	if maxSize < 1 {
		maxSize = 1
	}
	d := &UpdateDeduper{
		seen:    make(map[string]*seenEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go d.cleanup()
	return d
}

// UpdateKey builds the dedupe key for one tenant's update id.
func UpdateKey(tenantID string, updateID int) string {
	return tenantID + "#" + strconv.Itoa(updateID)
}

// Seen reports whether key was marked and has not expired.
func (d *UpdateDeduper) Seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.seen[key]
	if !ok {
		return false
	}
	return d.now().Sub(entry.at) < d.ttl
}

// Mark records key as processed.
func (d *UpdateDeduper) Mark(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if entry, ok := d.seen[key]; ok {
		entry.at = now
		d.order.MoveToBack(entry.element)
		return
	}
	if len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[key] = &seenEntry{at: now, element: d.order.PushBack(key)}
}

// Len returns the number of remembered keys.
func (d *UpdateDeduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

func (d *UpdateDeduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	d.order.Remove(front)
	delete(d.seen, key)
}

// expire drops every entry older than ttl.
func (d *UpdateDeduper) expire() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for front := d.order.Front(); front != nil; front = d.order.Front() {
		key, _ := front.Value.(string)
		entry := d.seen[key]
		if entry != nil && now.Sub(entry.at) < d.ttl {
			return
		}
		d.order.Remove(front)
		delete(d.seen, key)
	}
}

func (d *UpdateDeduper) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.expire()
		case <-d.done:
			return
		}
	}
}

func (d *UpdateDeduper) Close() {
	d.closeOnce.Do(func() { close(d.done) })
}
