package profile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// ErrCorrupt is returned by a Medium whose document cannot be decoded. The
// Store recovers from it by treating the document as empty.
var ErrCorrupt = errors.New("corrupt profile document")

// Medium is the backing storage for a Store. It reads and replaces the whole
// document at once.
type Medium interface {
	// ReadAll returns every stored profile keyed by user id. A missing
	// document yields an empty map.
	ReadAll(ctx context.Context) (map[string]Profile, error)
	// WriteAll atomically replaces the whole document.
	WriteAll(ctx context.Context, profiles map[string]Profile) error
	Close() error
}

// Store loads and saves profiles on top of a Medium. Every save is a
// read-modify-write of the full document; concurrent writers in separate
// processes race and the last one wins.
type Store struct {
	medium Medium
	now    func() time.Time

	mu sync.Mutex // serializes read-modify-write within this process
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp last_updated.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(m Medium, opts ...Option) *Store {
	s := &Store{medium: m, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) readAll(ctx context.Context) (map[string]Profile, error) {
	all, err := s.medium.ReadAll(ctx)
	if errors.Is(err, ErrCorrupt) {
		log.Printf("profile store: %v; treating as empty", err)
		return make(map[string]Profile), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading profiles: %w", err)
	}
	if all == nil {
		all = make(map[string]Profile)
	}
	return all, nil
}

// Load returns the profile stored for userID. The boolean is false when the
// user has no profile.
func (s *Store) Load(ctx context.Context, userID string) (Profile, bool, error) {
	all, err := s.readAll(ctx)
	if err != nil {
		return nil, false, err
	}
	p, ok := all[userID]
	if !ok {
		return nil, false, nil
	}
	return p.Clone(), true, nil
}

// Save upserts the profile for userID, stamping last_updated, and returns the
// stored copy.
func (s *Store) Save(ctx context.Context, userID string, p Profile) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	stored := p.Clone()
	stored.Normalize()
	stored[LastUpdated] = s.now().UTC().Format(time.RFC3339)
	all[userID] = stored

	if err := s.medium.WriteAll(ctx, all); err != nil {
		return nil, fmt.Errorf("saving profile %s: %w", userID, err)
	}
	return stored.Clone(), nil
}

// All returns a snapshot of every profile in ascending user id order.
func (s *Store) All(ctx context.Context) ([]Entry, error) {
	all, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(all))
	for id, p := range all {
		out = append(out, Entry{UserID: id, Profile: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// UserIDs returns every known user id in ascending order.
func (s *Store) UserIDs(ctx context.Context) ([]string, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.UserID
	}
	return ids, nil
}

// Find returns the profiles matching every criterion, in user id order.
func (s *Store) Find(ctx context.Context, criteria map[string]string) ([]Entry, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range entries {
		if e.Profile.Matches(criteria) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Close releases the backing medium.
func (s *Store) Close() error {
	return s.medium.Close()
}
