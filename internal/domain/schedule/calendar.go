package schedule

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// IntervalSet is a collection of committed time blocks for one resource.
// It is not safe for concurrent use; Calendar adds the locking.
type IntervalSet struct {
	slots []TimeSlot
}

func NewIntervalSet(slots ...TimeSlot) *IntervalSet {
	s := &IntervalSet{slots: make([]TimeSlot, len(slots))}
	copy(s.slots, slots)
	sort.Slice(s.slots, func(i, j int) bool { return s.slots[i].start.Before(s.slots[j].start) })
	return s
}

func (s *IntervalSet) Len() int {
	return len(s.slots)
}

func (s *IntervalSet) Overlaps(slot TimeSlot) bool {
	// First committed block ending after the candidate's start.
	i := sort.Search(len(s.slots), func(i int) bool {
		return s.slots[i].end.After(slot.start)
	})
	return i < len(s.slots) && s.slots[i].Overlaps(slot)
}

func (s *IntervalSet) Add(slot TimeSlot) {
	i := sort.Search(len(s.slots), func(i int) bool {
		return s.slots[i].start.After(slot.start)
	})
	s.slots = append(s.slots, TimeSlot{})
	copy(s.slots[i+1:], s.slots[i:])
	s.slots[i] = slot
}

func (s *IntervalSet) Remove(slot TimeSlot) {
	for i, existing := range s.slots {
		if existing.start.Equal(slot.start) && existing.end.Equal(slot.end) {
			s.slots = append(s.slots[:i], s.slots[i+1:]...)
			return
		}
	}
}

// Calendar is an in-process availability store: per-resource committed
// blocks behind one serialization point. TryClaim is the pessimistic
// variant of the conflict resolver contract; the production wiring
// serializes through the database's exclusion constraint, the in-memory
// persistence used by the unit fixtures serializes through a Calendar.
type Calendar struct {
	mu        sync.Mutex
	resources map[uuid.UUID]*IntervalSet
}

func NewCalendar() *Calendar {
	return &Calendar{resources: make(map[uuid.UUID]*IntervalSet)}
}

// TryClaim atomically checks and inserts the interval for the resource.
// A false result means the interval overlaps a committed block: an
// expected outcome under contention, not a fault.
func (c *Calendar) TryClaim(resourceID uuid.UUID, slot TimeSlot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.resources[resourceID]
	if !ok {
		set = NewIntervalSet()
		c.resources[resourceID] = set
	}
	if set.Overlaps(slot) {
		return false
	}
	set.Add(slot)
	return true
}

// Release frees a previously claimed interval, e.g. on cancellation.
func (c *Calendar) Release(resourceID uuid.UUID, slot TimeSlot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if set, ok := c.resources[resourceID]; ok {
		set.Remove(slot)
	}
}

func (c *Calendar) Committed(resourceID uuid.UUID) []TimeSlot {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.resources[resourceID]
	if !ok {
		return nil
	}
	out := make([]TimeSlot, len(set.slots))
	copy(out, set.slots)
	return out
}
