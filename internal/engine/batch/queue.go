package batch

import "fmt"

// compactThreshold is the number of consumed slots after which a fifo
// reclaims its backing array.
const compactThreshold = 64

// fifo is an insertion-ordered queue of jobs.
type fifo struct {
	items []Job
	head  int
}

func (q *fifo) len() int {
	return len(q.items) - q.head
}

func (q *fifo) push(j Job) {
	q.items = append(q.items, j)
}

func (q *fifo) front() (Job, bool) {
	if q.len() == 0 {
		return Job{}, false
	}
	return q.items[q.head], true
}

func (q *fifo) pop() (Job, bool) {
	if q.len() == 0 {
		return Job{}, false
	}
	j := q.items[q.head]
	q.items[q.head] = Job{}
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head >= compactThreshold && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return j, true
}

func (q *fifo) clear() int {
	n := q.len()
	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
	return n
}

// QueueSet holds one FIFO queue per category. Entries within a category are
// never reordered.
type QueueSet struct {
	queues [NumCategories]fifo
	total  int
}

// Push appends j to the tail of its category queue.
func (s *QueueSet) Push(j Job) error {
	if !j.Category.Valid() {
		return fmt.Errorf("%w: got %d", ErrInvalidCategory, uint8(j.Category))
	}
	s.queues[j.Category].push(j)
	s.total++
	return nil
}

// Front returns the head of cat's queue without removing it.
func (s *QueueSet) Front(cat Category) (Job, bool) {
	if !cat.Valid() {
		return Job{}, false
	}
	return s.queues[cat].front()
}

// PopFront removes and returns the head of cat's queue.
func (s *QueueSet) PopFront(cat Category) (Job, bool) {
	if !cat.Valid() {
		return Job{}, false
	}
	j, ok := s.queues[cat].pop()
	if ok {
		s.total--
	}
	return j, ok
}

// PopNext removes the head of the highest-priority non-empty queue.
func (s *QueueSet) PopNext() (Job, bool) {
	for _, cat := range Categories() {
		if j, ok := s.PopFront(cat); ok {
			return j, true
		}
	}
	return Job{}, false
}

// Len returns the depth of cat's queue.
func (s *QueueSet) Len(cat Category) int {
	if !cat.Valid() {
		return 0
	}
	return s.queues[cat].len()
}

// Total returns the number of jobs across all queues.
func (s *QueueSet) Total() int {
	return s.total
}

// Clear drops every queued job and returns how many were dropped.
func (s *QueueSet) Clear() int {
	n := 0
	for i := range s.queues {
		n += s.queues[i].clear()
	}
	s.total = 0
	return n
}
