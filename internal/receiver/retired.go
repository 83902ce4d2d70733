package receiver

// retiredSet remembers the most recent finished frame ids in FIFO order so
// late or duplicated fragments cannot resurrect a frame.
type retiredSet struct {
	ids  []uint32
	next int
	full bool
	set  map[uint32]struct{}
}

func newRetiredSet(capacity int) *retiredSet {
	return &retiredSet{
		ids: make([]uint32, capacity),
		set: make(map[uint32]struct{}, capacity),
	}
}

func (s *retiredSet) add(id uint32) {
	if _, ok := s.set[id]; ok {
		return
	}
	if s.full {
		delete(s.set, s.ids[s.next])
	}
	s.ids[s.next] = id
	s.set[id] = struct{}{}
	s.next++
	if s.next == len(s.ids) {
		s.next = 0
		s.full = true
	}
}

func (s *retiredSet) contains(id uint32) bool {
	_, ok := s.set[id]
	return ok
}
