package services

import "sync/atomic"

// IDSequence mints identifiers for locally created users. It only moves
// forward, and Observe pushes it past ids that came from the directory, so two
// additions can never share an id.
type IDSequence struct {
	last atomic.Int64
}

func (s *IDSequence) Next() int64 {
	return s.last.Add(1)
}

// Observe makes sure the next id is greater than id.
func (s *IDSequence) Observe(id int64) {
	for {
		cur := s.last.Load()
		if id <= cur || s.last.CompareAndSwap(cur, id) {
			return
		}
	}
}
