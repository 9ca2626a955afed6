package lavalink

import (
	"sync"

	"github.com/emirpasic/gods/lists/doublylinkedlist"
)

// TrackInQueue is a track awaiting playback, plus the optional playback
// parameters it should start with once it reaches the front of the
// queue. All of StartTime/EndTime/Volume/Filters are optional and mirror
// the fields UpdatePlayerRequest accepts; PlayerContextInner.startTrack
// maps StartTime to the request's Position field.
type TrackInQueue struct {
	Track     TrackData
	StartTime *int64
	EndTime   *int64
	Volume    *int
	Filters   *Filters
}

// Queue is the ordered, double-ended sequence of tracks waiting to play
// for one guild's player. It is owned by a single PlayerContextInner actor
// goroutine and is safe for concurrent reads via the mutex, matching the
// teacher's pattern of guarding its arraylist-backed queue with a
// sync.RWMutex even though only one goroutine ever mutates it.
type Queue struct {
	mu   sync.RWMutex
	list *doublylinkedlist.List
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{list: doublylinkedlist.New()}
}

// Len reports the number of tracks currently queued.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.list.Size()
}

// PushBack appends a track to the end of the queue.
func (q *Queue) PushBack(t TrackInQueue) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.list.Add(t)
}

// PushFront inserts a track at the front of the queue, so it plays next.
func (q *Queue) PushFront(t TrackInQueue) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.list.Insert(0, t)
}

// Insert places a track at the given index, shifting later entries back.
func (q *Queue) Insert(index int, t TrackInQueue) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.list.Insert(index, t)
}

// PopFront removes and returns the track at the front of the queue. The
// second return value is false if the queue is empty.
func (q *Queue) PopFront() (TrackInQueue, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	v, ok := q.list.Get(0)
	if !ok {
		return TrackInQueue{}, false
	}
	q.list.Remove(0)
	return v.(TrackInQueue), true
}

// Remove deletes the track at index, if present.
func (q *Queue) Remove(index int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.list.Remove(index)
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.list.Clear()
}

// Replace discards the current queue contents and replaces them with
// tracks.
func (q *Queue) Replace(tracks []TrackInQueue) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.list.Clear()
	for _, t := range tracks {
		q.list.Add(t)
	}
}

// Append adds tracks to the end of the queue, preserving their order.
func (q *Queue) Append(tracks []TrackInQueue) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range tracks {
		q.list.Add(t)
	}
}

// Slice returns a snapshot copy of the queue contents, front to back.
func (q *Queue) Slice() []TrackInQueue {
	q.mu.RLock()
	defer q.mu.RUnlock()
	values := q.list.Values()
	out := make([]TrackInQueue, len(values))
	for i, v := range values {
		out[i] = v.(TrackInQueue)
	}
	return out
}
