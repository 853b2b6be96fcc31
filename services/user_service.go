package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go-usermanager/metrics"
	"go-usermanager/models"
	"go-usermanager/utils"
)

var (
	ErrNotFound            = errors.New("user not found")
	ErrNotificationDropped = errors.New("notification dropped: buffer full")
)

// ValidationError carries the per-field messages of a rejected form.
type ValidationError struct {
	Fields models.FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid user form: " + strings.Join(keys, ", ")
}

// Directory is the remote source of truth for the initial user list.
type Directory interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
}

type ErrorSink interface {
	Report(err error)
}

type ListQuery struct {
	Query    string
	SortBy   string
	Desc     bool
	Page     int
	PageSize int
}

type ListResult struct {
	Users     []models.User `json:"users"`
	Total     int           `json:"total"`
	Page      int           `json:"page"`
	Pages     int           `json:"pages"`
	PageSize  int           `json:"page_size"`
	Query     string        `json:"query,omitempty"`
	Loading   bool          `json:"loading"`
	LoadError string        `json:"load_error,omitempty"`
}

type State struct {
	Loading   bool   `json:"loading"`
	Loaded    bool   `json:"loaded"`
	LoadError string `json:"load_error,omitempty"`
	Total     int    `json:"total"`
	Revision  uint64 `json:"revision"`
}

type UserService struct {
	baseCtx  context.Context
	dir      Directory
	store    *UserStore
	ids      IDSequence
	log      *utils.Logger
	errs     ErrorSink
	pageSize int

	initOnce sync.Once
	initDone chan struct{}
	loadMu   sync.Mutex
}

// NewUserService wires the store to the directory. The initial load started by
// EnsureLoaded runs under baseCtx; once baseCtx is done a late result is
// discarded.
func NewUserService(baseCtx context.Context, dir Directory, store *UserStore, log *utils.Logger, errs ErrorSink, pageSize int) *UserService {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &UserService{
		baseCtx:  baseCtx,
		dir:      dir,
		store:    store,
		log:      log,
		errs:     errs,
		pageSize: pageSize,
		initDone: make(chan struct{}),
	}
}

// EnsureLoaded kicks off the one-time initial load in the background and
// returns immediately.
func (s *UserService) EnsureLoaded() {
	s.initOnce.Do(func() {
		s.store.SetLoading(true)
		go func() {
			defer close(s.initDone)
			_ = s.load(s.baseCtx)
		}()
	})
}

// WaitLoaded blocks until the initial load has finished or ctx is done.
func (s *UserService) WaitLoaded(ctx context.Context) error {
	select {
	case <-s.initDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reload fetches the directory again and replaces the collection on success.
func (s *UserService) Reload(ctx context.Context) error {
	return s.load(ctx)
}

func (s *UserService) load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.store.SetLoading(true)
	defer s.store.SetLoading(false)

	start := time.Now()
	users, err := s.dir.ListUsers(ctx)
	metrics.ObserveDirectoryFetch("list", err, time.Since(start))

	if ctxErr := ctx.Err(); ctxErr != nil {
		s.log.Warn("directory load abandoned", "err", ctxErr)
		return ctxErr
	}

	if err != nil {
		err = fmt.Errorf("load users: %w", err)
		s.store.SetLoadResult(err)
		if s.errs != nil {
			s.errs.Report(err)
		}
		return err
	}

	s.store.ReplaceAll(users)
	s.store.SetLoadResult(nil)
	s.ids.Observe(s.store.MaxID())
	metrics.ObserveStoreMutation("replace_all", len(users))
	s.log.Info("users loaded", "count", len(users))
	return nil
}

func (s *UserService) List(q ListQuery) ListResult {
	snap := s.store.Snapshot()

	users := Filter(snap.Users, q.Query)
	SortUsers(users, q.SortBy, q.Desc)

	size := q.PageSize
	if size < 1 {
		size = s.pageSize
	}
	page := Paginate(users, q.Page, size)

	return ListResult{
		Users:     page.Users,
		Total:     page.Total,
		Page:      page.Page,
		Pages:     page.Pages,
		PageSize:  page.PageSize,
		Query:     q.Query,
		Loading:   snap.Loading,
		LoadError: snap.LoadError,
	}
}

// Find looks in the store first and falls back to the directory. Any fallback
// failure is reported as ErrNotFound.
func (s *UserService) Find(ctx context.Context, id int64) (models.User, error) {
	if u, ok := s.store.Get(id); ok {
		return u, nil
	}

	start := time.Now()
	u, err := s.dir.GetUser(ctx, id)
	metrics.ObserveDirectoryFetch("get", err, time.Since(start))
	if err != nil {
		s.log.Debug("directory lookup failed", "user_id", id, "err", err)
		return models.User{}, ErrNotFound
	}
	return u, nil
}

// Stored returns the user only when the store holds it.
func (s *UserService) Stored(id int64) (models.User, bool) {
	return s.store.Get(id)
}

func (s *UserService) Create(form models.UserForm) (Change, error) {
	if errs := models.ValidateUserForm(form); len(errs) > 0 {
		return Change{}, &ValidationError{Fields: errs}
	}

	c := s.store.Add(form.NewUser(s.ids.Next()))
	metrics.ObserveStoreMutation("add", c.Size)
	return c, nil
}

// Edit applies form to the stored user. The patch is built from the record as
// it is when the store commits, not from an earlier read.
func (s *UserService) Edit(id int64, form models.UserForm) (Change, error) {
	if _, ok := s.store.Get(id); !ok {
		return Change{}, ErrNotFound
	}
	if errs := models.ValidateUserForm(form); len(errs) > 0 {
		return Change{}, &ValidationError{Fields: errs}
	}

	c, ok := s.store.Modify(id, form.Patch)
	if !ok {
		// removed after the existence check
		return Change{}, ErrNotFound
	}
	metrics.ObserveStoreMutation("update", c.Size)
	return c, nil
}

// Delete removes the user and reports whether it existed. Deleting an unknown
// id is not an error.
func (s *UserService) Delete(id int64) (Change, bool) {
	c, removed := s.store.Remove(id)
	if removed {
		metrics.ObserveStoreMutation("remove", c.Size)
	}
	return c, removed
}

func (s *UserService) State() State {
	snap := s.store.Snapshot()
	return State{
		Loading:   snap.Loading,
		Loaded:    snap.Loaded,
		LoadError: snap.LoadError,
		Total:     len(snap.Users),
		Revision:  snap.Revision,
	}
}
