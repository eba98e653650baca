package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Dan9191/barakah/internal/localstore"
	"github.com/sirupsen/logrus"
)

// Keys under which each collection lives in the local store
const (
	KeyLocations     = "baraka_locations"
	KeyTasks         = "baraka_tasks"
	KeyAppointments  = "baraka_appointments"
	KeyFinances      = "baraka_finances"
	KeySymptoms      = "baraka_symptoms"
	KeyPrayerTimes   = "baraka_prayer_times"
	KeyLastSync      = "baraka_last_sync"
	KeyRemindersSent = "baraka_reminders_sent"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrEmptyTitle = errors.New("title is empty")
)

// Store is the device-side state container. It replaces the browser's
// persisted app store: every handler gets one injected, tests build their own.
type Store struct {
	kv  localstore.KV
	log *logrus.Logger
	now func() time.Time
	mu  sync.Mutex
}

// NewStore wraps kv. now may be nil, in which case time.Now is used.
func NewStore(kv localstore.KV, log *logrus.Logger, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logrus.New()
	}
	return &Store{kv: kv, log: log, now: now}
}

// Now returns the store's clock reading
func (s *Store) Now() time.Time {
	return s.now()
}

// load decodes key into out. A missing key leaves out untouched; a corrupted
// value is logged and discarded so callers always see a usable default.
func (s *Store) load(ctx context.Context, key string, out any) error {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, localstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.log.WithField("key", key).Warnf("Discarding corrupted local value: %v", err)
		return errCorrupted
	}
	return nil
}

var errCorrupted = errors.New("corrupted value")

func (s *Store) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.kv.Put(ctx, key, raw)
}

func loadList[T any](ctx context.Context, s *Store, key string) ([]T, error) {
	var items []T
	if err := s.load(ctx, key, &items); err != nil {
		if errors.Is(err, errCorrupted) {
			return []T{}, nil
		}
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// mutateList runs fn over the current list under the store lock and persists the result
func mutateList[T any](ctx context.Context, s *Store, key string, fn func([]T) ([]T, error)) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := loadList[T](ctx, s, key)
	if err != nil {
		return nil, err
	}
	items, err = fn(items)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, key, items); err != nil {
		return nil, err
	}
	return items, nil
}

func readList[T any](ctx context.Context, s *Store, key string) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loadList[T](ctx, s, key)
}

func writeList[T any](ctx context.Context, s *Store, key string, items []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if items == nil {
		items = []T{}
	}
	return s.save(ctx, key, items)
}

func indexOf[T any](items []T, match func(T) bool) int {
	for i, it := range items {
		if match(it) {
			return i
		}
	}
	return -1
}

// MarkSynced records the current time as the last successful sync
func (s *Store) MarkSynced(ctx context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now().UTC()
	if err := s.save(ctx, KeyLastSync, at); err != nil {
		return time.Time{}, err
	}
	return at, nil
}

// LastSync reports when the store was last synced, if ever
func (s *Store) LastSync(ctx context.Context) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var at time.Time
	if err := s.load(ctx, KeyLastSync, &at); err != nil && !errors.Is(err, errCorrupted) {
		return time.Time{}, false, err
	}
	return at, !at.IsZero(), nil
}
