package services

import (
	"sync"

	"go-usermanager/models"
)

// StoreSnapshot is a point-in-time copy of the store.
type StoreSnapshot struct {
	Users     []models.User
	Loading   bool
	Loaded    bool
	LoadError string
	Revision  uint64
}

// UserStore owns the user collection for the lifetime of the process.
// All reads and writes go through its methods; none of them fail.
type UserStore struct {
	mu        sync.RWMutex
	users     []models.User
	loading   bool
	loaded    bool
	loadError string
	revision  uint64
}

func NewUserStore() *UserStore {
	return &UserStore{
		users: []models.User{},
	}
}

func (s *UserStore) ReplaceAll(users []models.User) {
	cp := make([]models.User, 0, len(users))
	for _, u := range users {
		cp = append(cp, u.Clone())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = cp
	s.revision++
}

// Change is what a committed mutation left behind: the affected record, the
// revision it produced and the collection size right after it.
type Change struct {
	User     models.User
	Revision uint64
	Size     int
}

// commitLocked bumps the revision and describes the new state. Callers hold mu.
func (s *UserStore) commitLocked(u models.User) Change {
	s.revision++
	return Change{User: u.Clone(), Revision: s.revision, Size: len(s.users)}
}

// Add puts u in front of the collection. Identifier uniqueness is the
// caller's job.
func (s *UserStore) Add(u models.User) Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]models.User, 0, len(s.users)+1)
	users = append(users, u.Clone())
	s.users = append(users, s.users...)
	return s.commitLocked(u)
}

// Update merges patch into the record with the same id. Reports whether such a
// record existed; an unknown id changes nothing.
func (s *UserStore) Update(patch models.UserPatch) (Change, bool) {
	return s.Modify(patch.ID, func(models.User) models.UserPatch { return patch })
}

// Modify builds the patch from the record as stored right now and merges it.
// Reading, building and merging happen under one lock.
func (s *UserStore) Modify(id int64, build func(existing models.User) models.UserPatch) (Change, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID != id {
			continue
		}
		patch := build(s.users[i].Clone())
		patch.ID = id
		s.users[i] = models.Merge(s.users[i], patch)
		return s.commitLocked(s.users[i]), true
	}
	return Change{}, false
}

// Remove drops the record with the given id and reports whether it was there.
func (s *UserStore) Remove(id int64) (Change, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]models.User, 0, len(s.users))
	var removed models.User
	for _, u := range s.users {
		if u.ID == id {
			removed = u
			continue
		}
		kept = append(kept, u)
	}
	if len(kept) == len(s.users) {
		return Change{}, false
	}
	s.users = kept
	return s.commitLocked(removed), true
}

func (s *UserStore) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = loading
	s.revision++
}

// SetLoadResult records how the last directory load ended. A nil err marks the
// store as loaded and clears any previous failure.
func (s *UserStore) SetLoadResult(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.loadError = err.Error()
	} else {
		s.loadError = ""
		s.loaded = true
	}
	s.revision++
}

func (s *UserStore) Get(id int64) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.ID == id {
			return u.Clone(), true
		}
	}
	return models.User{}, false
}

func (s *UserStore) MaxID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max int64
	for _, u := range s.users {
		if u.ID > max {
			max = u.ID
		}
	}
	return max
}

func (s *UserStore) Snapshot() StoreSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.Clone())
	}
	return StoreSnapshot{
		Users:     users,
		Loading:   s.loading,
		Loaded:    s.loaded,
		LoadError: s.loadError,
		Revision:  s.revision,
	}
}

func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.users)
}
