package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Dan9191/barakah/internal/assistant"
	"github.com/Dan9191/barakah/internal/backup"
	"github.com/Dan9191/barakah/internal/cloudsync"
	"github.com/Dan9191/barakah/internal/events"
	"github.com/Dan9191/barakah/internal/export"
	"github.com/Dan9191/barakah/internal/models"
	"github.com/Dan9191/barakah/internal/state"
	"github.com/sirupsen/logrus"
)

var (
	ErrEmptyCommand = errors.New("command text is empty")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

const (
	// pendingTTL is how long a finished background command stays queryable
	pendingTTL = 5 * time.Minute
	// DefaultPrayerDays is the span of the prayer calendar feed
	DefaultPrayerDays = 30
	maxPrayerDays     = 366
)

// Syncer reconciles the local store with the cloud
type Syncer interface {
	SyncAll(ctx context.Context) cloudsync.Result
	PullAll(ctx context.Context) cloudsync.Result
	ForgetUser()
}

// Refresher pulls external data into the local store
type Refresher interface {
	RefreshRate(ctx context.Context) (float64, error)
	RefreshPrayerTimes(ctx context.Context) (models.PrayerTimes, error)
}

// Publisher receives command events
type Publisher interface {
	Publish(events.Event)
}

// CommandResponse is the outcome of a free-text command
type CommandResponse struct {
	Command models.ParsedCommand    `json:"command"`
	Result  assistant.CommandResult `json:"result"`
}

// Service handles business logic
type Service struct {
	assistant *assistant.Assistant
	store     *state.Store
	sync      Syncer
	backup    *backup.Service
	refresh   Refresher
	pub       Publisher
	log       *logrus.Logger

	mu      sync.Mutex
	pending map[string]*assistant.Pending
}

// NewService initializes a new service. refresh and pub may be nil.
func NewService(a *assistant.Assistant, store *state.Store, syncer Syncer, b *backup.Service, refresh Refresher, pub Publisher, log *logrus.Logger) *Service {
	return &Service{
		assistant: a,
		store:     store,
		sync:      syncer,
		backup:    b,
		refresh:   refresh,
		pub:       pub,
		log:       log,
		pending:   make(map[string]*assistant.Pending),
	}
}

// HandleCommand parses and executes text. Commands that finish in the
// background stay queryable through Pending.
func (s *Service) HandleCommand(ctx context.Context, text string) (*CommandResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyCommand
	}

	cmd, res := s.assistant.Handle(ctx, text)
	if res.Pending != nil {
		s.track(res.Pending)
	}

	s.log.WithFields(logrus.Fields{
		"intent":  cmd.Intent,
		"success": res.Success,
		"action":  res.Action,
	}).Info("Command handled")
	if s.pub != nil {
		s.pub.Publish(events.Event{Type: events.TypeCommandHandled, Data: map[string]any{
			"intent":  cmd.Intent,
			"success": res.Success,
			"action":  res.Action,
		}})
	}
	return &CommandResponse{Command: cmd, Result: res}, nil
}

// Parse classifies text without executing it
func (s *Service) Parse(text string) (models.ParsedCommand, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ParsedCommand{}, ErrEmptyCommand
	}
	return s.assistant.Parse(text), nil
}

func (s *Service) track(p *assistant.Pending) {
	s.mu.Lock()
	s.pending[p.ID] = p
	s.mu.Unlock()

	go func() {
		<-p.Done()
		time.AfterFunc(pendingTTL, func() {
			s.mu.Lock()
			delete(s.pending, p.ID)
			s.mu.Unlock()
		})
	}()
}

// Pending waits for the background command id until ctx ends
func (s *Service) Pending(ctx context.Context, id string) (assistant.CommandResult, error) {
	s.mu.Lock()
	p, ok := s.pending[id]
	s.mu.Unlock()
	if !ok {
		return assistant.CommandResult{}, ErrNotFound
	}
	return p.Wait(ctx)
}

// Sync pushes and pulls every collection
func (s *Service) Sync(ctx context.Context) cloudsync.Result {
	return s.sync.SyncAll(ctx)
}

// LastSync reports when the last successful sync or pull finished
func (s *Service) LastSync(ctx context.Context) (time.Time, bool, error) {
	return s.store.LastSync(ctx)
}

// Pull replaces local collections with the cloud copy
func (s *Service) Pull(ctx context.Context) cloudsync.Result {
	return s.sync.PullAll(ctx)
}

// ResetSession drops per-user caches after a login or logout
func (s *Service) ResetSession() {
	s.sync.ForgetUser()
}

// ExchangeRate returns the locally stored ARS per USD rate
func (s *Service) ExchangeRate(ctx context.Context) (float64, error) {
	doc, err := s.store.Finances(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read finances: %w", err)
	}
	return doc.ExchangeRate, nil
}

var errNoRefresher = errors.New("external data sources are not configured")

// RefreshExchangeRate fetches a fresh rate from the quote provider
func (s *Service) RefreshExchangeRate(ctx context.Context) (float64, error) {
	if s.refresh == nil {
		return 0, errNoRefresher
	}
	return s.refresh.RefreshRate(ctx)
}

// PrayerTimes returns today's cached times merged over the defaults
func (s *Service) PrayerTimes(ctx context.Context) (models.PrayerTimes, error) {
	return s.store.PrayerTimes(ctx)
}

// RefreshPrayerTimes fetches the times for the request position, or the
// configured home when the client sent none
func (s *Service) RefreshPrayerTimes(ctx context.Context) (models.PrayerTimes, error) {
	if s.refresh == nil {
		return models.PrayerTimes{}, errNoRefresher
	}
	return s.refresh.RefreshPrayerTimes(ctx)
}

func (s *Service) Finances(ctx context.Context) (models.FinanceDocument, error) {
	return s.store.Finances(ctx)
}

// ExportBackup returns a signed archive of the local store
func (s *Service) ExportBackup(ctx context.Context) ([]byte, error) {
	return s.backup.Export(ctx)
}

// RestoreBackup replaces the local store with a verified archive
func (s *Service) RestoreBackup(ctx context.Context, raw []byte) (*backup.Envelope, error) {
	env, err := s.backup.Open(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.backup.Restore(ctx, env); err != nil {
		return nil, fmt.Errorf("failed to restore backup: %w", err)
	}
	return env, nil
}

// ExportLocations writes the saved locations as GPX
func (s *Service) ExportLocations(ctx context.Context) ([]byte, error) {
	locs, err := s.store.Locations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read locations: %w", err)
	}
	out, skipped, err := export.GPX(locs, s.store.Now())
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		s.log.Warnf("Skipped %d locations without a geo URL", skipped)
	}
	return out, nil
}

// ImportLocations adds every waypoint of a GPX document
func (s *Service) ImportLocations(ctx context.Context, raw []byte) ([]models.Location, error) {
	parsed, err := export.ParseGPX(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	added := make([]models.Location, 0, len(parsed))
	for _, loc := range parsed {
		saved, err := s.store.AddLocation(ctx, loc)
		if err != nil {
			return added, fmt.Errorf("failed to store location: %w", err)
		}
		added = append(added, saved)
	}
	s.log.Infof("Imported %d locations from GPX", len(added))
	return added, nil
}

// ExportAppointmentsICS writes the appointments as an iCalendar feed in the
// local time zone
func (s *Service) ExportAppointmentsICS(ctx context.Context) ([]byte, error) {
	apts, err := s.store.Appointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read appointments: %w", err)
	}
	now := s.store.Now()
	out, skipped, err := export.AppointmentsICS(apts, now.Location(), now)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		s.log.Warnf("Skipped %d appointments with an unreadable date", skipped)
	}
	return out, nil
}

// ExportPrayerTimesICS repeats the cached prayer times for days days from today
func (s *Service) ExportPrayerTimesICS(ctx context.Context, days int) ([]byte, error) {
	if days < 1 || days > maxPrayerDays {
		return nil, invalid("days must be between 1 and %d", maxPrayerDays)
	}
	times, err := s.store.PrayerTimes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read prayer times: %w", err)
	}
	now := s.store.Now()
	return export.PrayerTimesICS(times, now, days, "", now)
}

// ExportTransactions writes the signed-in user's ledger as a spreadsheet
func (s *Service) ExportTransactions(ctx context.Context) ([]byte, error) {
	txs, err := s.assistant.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	return export.TransactionsXLSX(txs)
}

// ExportAppointmentsXLSX writes the appointments as a spreadsheet
func (s *Service) ExportAppointmentsXLSX(ctx context.Context) ([]byte, error) {
	apts, err := s.store.Appointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read appointments: %w", err)
	}
	return export.AppointmentsXLSX(apts)
}

// notFound maps the store's sentinel onto the service one
func notFound(err error) error {
	if errors.Is(err, state.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, state.ErrEmptyTitle) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return err
}
