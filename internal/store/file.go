package store

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/solarview/solarview/internal/config"
	"github.com/solarview/solarview/internal/panel"
	"github.com/solarview/solarview/internal/user"
)

// File is a Store that keeps the whole dataset in memory and, when a path is
// set, mirrors every committed change to a JSON document on disk.
//
// A transaction works on a private copy of the dataset while holding the
// write lock; the copy replaces the live dataset only on commit.
type File struct {
	mu    *sync.RWMutex
	path  string
	now   func() time.Time
	live  *fileState // shared by the root store and its transactions
	txSt  *fileState // non-nil when bound to a transaction
	users user.Repository
	pans  panel.Repository
}

type fileState struct {
	nextUserID int64
	users      []user.User
	panels     []panel.Panel
}

// OpenFile loads the dataset at path, or starts empty when the file does not
// exist yet. An empty path gives a memory-only store.
func OpenFile(path string) (*File, error) {
	st := &fileState{nextUserID: 1}
	if path != "" {
		loaded, err := loadSnapshot(path)
		if err != nil {
			return nil, err
		}
		if loaded != nil {
			st = loaded
		}
	}

	f := &File{
		mu:   &sync.RWMutex{},
		path: path,
		now:  func() time.Time { return time.Now().UTC() },
		live: st,
	}
	f.users = &fileUsers{f: f}
	f.pans = &filePanels{f: f}
	return f, nil
}

// NewMemory returns a memory-only File store.
func NewMemory() *File {
	f, _ := OpenFile("")
	return f
}

func (s *File) Users() user.Repository   { return s.users }
func (s *File) Panels() panel.Repository { return s.pans }

// WithinTx runs fn against a copy of the dataset and publishes the copy when
// fn succeeds and the snapshot is saved.
func (s *File) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.txSt != nil {
		return fn(ctx, s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.live.clone()
	tx := &File{mu: s.mu, path: s.path, now: s.now, live: s.live, txSt: working}
	tx.users = &fileUsers{f: tx}
	tx.pans = &filePanels{f: tx}

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return s.commit(working)
}

func (s *File) Ping(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("checking store directory: %w", err)
	}
	return nil
}

func (s *File) Backend() string { return config.BackendFile }

func (s *File) Close() {}

// read runs fn against the dataset visible to this store.
func (s *File) read(fn func(st *fileState) error) error {
	if s.txSt != nil {
		return fn(s.txSt)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.live)
}

// write runs fn against a writable dataset. Outside a transaction each call
// commits on its own.
func (s *File) write(fn func(st *fileState) error) error {
	if s.txSt != nil {
		return fn(s.txSt)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.live.clone()
	if err := fn(working); err != nil {
		return err
	}
	return s.commit(working)
}

// commit must be called with the write lock held.
func (s *File) commit(working *fileState) error {
	if s.path != "" {
		if err := saveSnapshot(s.path, working); err != nil {
			return err
		}
	}
	*s.live = *working
	return nil
}

func (st *fileState) clone() *fileState {
	return &fileState{
		nextUserID: st.nextUserID,
		users:      slices.Clone(st.users),
		panels:     slices.Clone(st.panels),
	}
}

func (st *fileState) userIndex(id int64) int {
	return slices.IndexFunc(st.users, func(u user.User) bool { return u.ID == id })
}

func (st *fileState) panelIndex(id uuid.UUID, ownerID int64) int {
	return slices.IndexFunc(st.panels, func(p panel.Panel) bool { return p.ID == id && p.OwnerID == ownerID })
}

// checkUnique reports a conflict with any user other than skipID.
func (st *fileState) checkUnique(skipID int64, email, apiKey string) error {
	for _, u := range st.users {
		if u.ID == skipID {
			continue
		}
		if strings.EqualFold(u.Email, email) {
			return user.ErrDuplicateEmail
		}
		if u.APIKey == apiKey {
			return user.ErrDuplicateAPIKey
		}
	}
	return nil
}

// --- users ---

type fileUsers struct {
	f *File
}

func (r *fileUsers) Create(_ context.Context, nu user.NewUser) (user.User, error) {
	var created user.User
	err := r.f.write(func(st *fileState) error {
		if err := st.checkUnique(0, nu.Email, nu.APIKey); err != nil {
			return err
		}
		now := r.f.now()
		created = user.User{
			ID:           st.nextUserID,
			Email:        nu.Email,
			PasswordHash: nu.PasswordHash,
			APIKey:       nu.APIKey,
			IsActive:     nu.IsActive,
			IsAdmin:      nu.IsAdmin,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		st.nextUserID++
		st.users = append(st.users, created)
		return nil
	})
	if err != nil {
		return user.User{}, err
	}
	return created, nil
}

func (r *fileUsers) find(match func(u user.User) bool) (user.User, error) {
	var found user.User
	err := r.f.read(func(st *fileState) error {
		i := slices.IndexFunc(st.users, match)
		if i < 0 {
			return user.ErrNotFound
		}
		found = st.users[i]
		return nil
	})
	return found, err
}

func (r *fileUsers) GetByID(_ context.Context, id int64) (user.User, error) {
	return r.find(func(u user.User) bool { return u.ID == id })
}

func (r *fileUsers) GetByEmail(_ context.Context, email string) (user.User, error) {
	return r.find(func(u user.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *fileUsers) GetByAPIKey(_ context.Context, key string) (user.User, error) {
	return r.find(func(u user.User) bool { return u.APIKey == key })
}

func (r *fileUsers) List(_ context.Context, skip, limit int) ([]user.User, error) {
	out := []user.User{}
	err := r.f.read(func(st *fileState) error {
		if skip >= len(st.users) {
			return nil
		}
		end := len(st.users)
		if limit > 0 && skip+limit < end {
			end = skip + limit
		}
		out = append(out, st.users[skip:end]...)
		return nil
	})
	return out, err
}

func (r *fileUsers) Update(ctx context.Context, id int64, fields user.UpdateFields) (user.User, error) {
	if fields.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	var updated user.User
	err := r.f.write(func(st *fileState) error {
		i := st.userIndex(id)
		if i < 0 {
			return user.ErrNotFound
		}
		next := fields.Apply(st.users[i])
		if err := st.checkUnique(id, next.Email, next.APIKey); err != nil {
			return err
		}
		next.UpdatedAt = r.f.now()
		st.users[i] = next
		updated = next
		return nil
	})
	if err != nil {
		return user.User{}, err
	}
	return updated, nil
}

// Delete removes the user and every panel model they own.
func (r *fileUsers) Delete(_ context.Context, id int64) error {
	return r.f.write(func(st *fileState) error {
		i := st.userIndex(id)
		if i < 0 {
			return user.ErrNotFound
		}
		st.users = slices.Delete(st.users, i, i+1)
		st.panels = slices.DeleteFunc(st.panels, func(p panel.Panel) bool { return p.OwnerID == id })
		return nil
	})
}

func (r *fileUsers) Count(_ context.Context) (int, error) {
	n := 0
	err := r.f.read(func(st *fileState) error {
		n = len(st.users)
		return nil
	})
	return n, err
}

func (r *fileUsers) CountAdmins(_ context.Context) (int, error) {
	n := 0
	err := r.f.read(func(st *fileState) error {
		for _, u := range st.users {
			if u.IsAdmin {
				n++
			}
		}
		return nil
	})
	return n, err
}

// --- panels ---

type filePanels struct {
	f *File
}

func (r *filePanels) Create(_ context.Context, np panel.NewPanel) (panel.Panel, error) {
	if np.ID == uuid.Nil {
		np.ID = uuid.New()
	}

	var created panel.Panel
	err := r.f.write(func(st *fileState) error {
		if st.userIndex(np.OwnerID) < 0 {
			return fmt.Errorf("panel owner %d: %w", np.OwnerID, user.ErrNotFound)
		}
		now := r.f.now()
		created = panel.Panel{
			ID:           np.ID,
			OwnerID:      np.OwnerID,
			Name:         np.Name,
			Capacity:     np.Capacity,
			Efficiency:   np.Efficiency,
			Manufacturer: np.Manufacturer,
			Type:         np.Type,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		st.panels = append(st.panels, created)
		return nil
	})
	if err != nil {
		return panel.Panel{}, err
	}
	return created, nil
}

func (r *filePanels) Get(_ context.Context, id uuid.UUID, ownerID int64) (panel.Panel, error) {
	var found panel.Panel
	err := r.f.read(func(st *fileState) error {
		i := st.panelIndex(id, ownerID)
		if i < 0 {
			return panel.ErrNotFound
		}
		found = st.panels[i]
		return nil
	})
	return found, err
}

func (r *filePanels) List(_ context.Context, ownerID int64, filter panel.ListFilter) ([]panel.Panel, error) {
	out := []panel.Panel{}
	err := r.f.read(func(st *fileState) error {
		for _, p := range st.panels {
			if p.OwnerID == ownerID && filter.Matches(p) {
				out = append(out, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(out, func(a, b panel.Panel) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (r *filePanels) Update(ctx context.Context, id uuid.UUID, ownerID int64, fields panel.UpdateFields) (panel.Panel, error) {
	if fields.IsEmpty() {
		return r.Get(ctx, id, ownerID)
	}

	var updated panel.Panel
	err := r.f.write(func(st *fileState) error {
		i := st.panelIndex(id, ownerID)
		if i < 0 {
			return panel.ErrNotFound
		}
		next := fields.Apply(st.panels[i])
		next.UpdatedAt = r.f.now()
		st.panels[i] = next
		updated = next
		return nil
	})
	if err != nil {
		return panel.Panel{}, err
	}
	return updated, nil
}

func (r *filePanels) Delete(_ context.Context, id uuid.UUID, ownerID int64) error {
	return r.f.write(func(st *fileState) error {
		i := st.panelIndex(id, ownerID)
		if i < 0 {
			return panel.ErrNotFound
		}
		st.panels = slices.Delete(st.panels, i, i+1)
		return nil
	})
}

// --- persistence ---

type snapshot struct {
	NextUserID int64         `json:"next_user_id"`
	Users      []userRecord  `json:"users"`
	Panels     []panelRecord `json:"panel_models"`
}

type userRecord struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	APIKey       string    `json:"api_key"`
	IsActive     bool      `json:"is_active"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type panelRecord struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      int64     `json:"owner_id"`
	Name         string    `json:"name"`
	Capacity     float64   `json:"capacity"`
	Efficiency   float64   `json:"efficiency"`
	Manufacturer string    `json:"manufacturer"`
	Type         string    `json:"type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func loadSnapshot(path string) (*fileState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading store file: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding store file: %w", err)
	}

	st := &fileState{nextUserID: snap.NextUserID}
	for _, u := range snap.Users {
		st.users = append(st.users, user.User(u))
		if u.ID >= st.nextUserID {
			st.nextUserID = u.ID + 1
		}
	}
	for _, p := range snap.Panels {
		st.panels = append(st.panels, panel.Panel(p))
	}
	if st.nextUserID < 1 {
		st.nextUserID = 1
	}
	return st, nil
}

// saveSnapshot writes the dataset to a temp file in the same directory and
// renames it over path so readers never observe a partial document.
func saveSnapshot(path string, st *fileState) error {
	snap := snapshot{
		NextUserID: st.nextUserID,
		Users:      make([]userRecord, 0, len(st.users)),
		Panels:     make([]panelRecord, 0, len(st.panels)),
	}
	for _, u := range st.users {
		snap.Users = append(snap.Users, userRecord(u))
	}
	for _, p := range st.panels {
		snap.Panels = append(snap.Panels, panelRecord(p))
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store file: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".solarview-*.json")
	if err != nil {
		return fmt.Errorf("creating temp store file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp store file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp store file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing store file: %w", err)
	}
	return nil
}
