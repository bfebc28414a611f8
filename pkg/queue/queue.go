// Package queue holds snapshot uploads that failed and are waiting for
// another attempt.
package queue

import (
	"sync"
	"time"
)

type Upload struct {
	ID         string
	Snapshot   string // local snapshot directory
	Key        string // object key prefix at the sink
	RetryAt    time.Time
	RetryCount int
	MaxRetries int
	LastError  string
}

// Exhausted reports whether the upload has used up its attempts.
func (u *Upload) Exhausted() bool {
	return u.MaxRetries > 0 && u.RetryCount >= u.MaxRetries
}

type Queue struct {
	items []*Upload
	now   func() time.Time
	mu    sync.Mutex
}

func NewQueue() *Queue {
	return NewQueueWithClock(time.Now)
}

func NewQueueWithClock(now func() time.Time) *Queue {
	return &Queue{
		items: make([]*Upload, 0),
		now:   now,
	}
}

func (q *Queue) Enqueue(u *Upload) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, u)
}

// Dequeue removes and returns the first upload that is due, or nil.
func (q *Queue) Dequeue() *Upload {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	for i, u := range q.items {
		if !u.RetryAt.After(now) {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return u
		}
	}
	return nil
}

// SetClock replaces the clock used to decide which uploads are due. Queued
// uploads are kept.
func (q *Queue) SetClock(now func() time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.now = now
}

// Drop removes every queued upload of the given snapshot directory; used
// when rotation deletes the directory.
func (q *Queue) Drop(snapshot string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	dropped := 0
	for _, u := range q.items {
		if u.Snapshot == snapshot {
			dropped++
			continue
		}
		kept = append(kept, u)
	}
	q.items = kept
	return dropped
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
