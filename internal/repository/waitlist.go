package repository

// Waitlist is the FIFO queue of enrolled players without an opponent.
// A handle appears at most once.
type Waitlist struct {
	handles []string
}

func NewWaitlist() *Waitlist {
	return &Waitlist{}
}

// Push - appends a handle unless it is already queued.
func (that *Waitlist) Push(id string) {
	if that.Contains(id) {
		return
	}

	that.handles = append(that.handles, id)
}

// PushFront - returns a handle to the head of the queue. Used when a
// popped pairing candidate turns out to be stale and its partner must not
// lose its place in line.
func (that *Waitlist) PushFront(id string) {
	if that.Contains(id) {
		return
	}

	that.handles = append([]string{id}, that.handles...)
}

// PopFront - removes and returns the oldest handle.
func (that *Waitlist) PopFront() (string, bool) {
	if len(that.handles) == 0 {
		return "", false
	}

	id := that.handles[0]
	that.handles = that.handles[1:]

	return id, true
}

// Remove - drops a handle from anywhere in the queue.
func (that *Waitlist) Remove(id string) {
	for i, handle := range that.handles {
		if handle == id {
			that.handles = append(that.handles[:i], that.handles[i+1:]...)
			return
		}
	}
}

func (that *Waitlist) Contains(id string) bool {
	for _, handle := range that.handles {
		if handle == id {
			return true
		}
	}

	return false
}

func (that *Waitlist) Len() int {
	return len(that.handles)
}
