package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/barakah/internal/cloudsync"
	"github.com/Dan9191/barakah/internal/events"
	"github.com/Dan9191/barakah/internal/models"
	"github.com/Dan9191/barakah/internal/state"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Syncer reconciles local and remote state
type Syncer interface {
	SyncAll(ctx context.Context) cloudsync.Result
}

// RateSource fetches the current USD rate
type RateSource interface {
	GetOfficialRate(ctx context.Context) (float64, error)
}

// RateStore persists the USD rate on the remote finance rows
type RateStore interface {
	UpdateExchangeRate(ctx context.Context, rate float64, at time.Time) (int64, error)
}

// PrayerSource fetches the prayer times of a day
type PrayerSource interface {
	GetTimings(ctx context.Context, date time.Time, pos models.Position) (models.PrayerTimes, error)
}

// Locator resolves where prayer times are computed for
type Locator interface {
	Locate(ctx context.Context) (models.Position, error)
}

// Mailer delivers appointment reminders
type Mailer interface {
	SendAppointmentReminder(to string, apt models.Appointment, startsAt, now time.Time) error
}

// Publisher receives reminder notifications
type Publisher interface {
	Publish(events.Event)
}

// Schedules are cron specs; an empty spec disables the job
type Schedules struct {
	Sync      string
	Reminders string
	Rate      string
	Prayer    string
}

// Deps are the collaborators of the scheduled jobs. Nil members disable
// the jobs that need them.
type Deps struct {
	Store     *state.Store
	Syncer    Syncer
	Rates     RateSource
	RateStore RateStore
	Prayers   PrayerSource
	Locator   Locator
	Mailer    Mailer
	NotifyTo  string
	Publisher Publisher
}

// Scheduler runs periodic jobs on a cron
type Scheduler struct {
	deps Deps
	cron *cron.Cron
	log  *logrus.Logger
}

func New(deps Deps, log *logrus.Logger) *Scheduler {
	logger := cron.PrintfLogger(log)
	return &Scheduler{
		deps: deps,
		cron: cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		log:  log,
	}
}

// Register adds every job whose schedule and dependencies are present
func (s *Scheduler) Register(sched Schedules) error {
	jobs := []struct {
		name    string
		spec    string
		enabled bool
		run     func(context.Context) error
	}{
		{"sync", sched.Sync, s.deps.Syncer != nil, s.runSync},
		{"reminders", sched.Reminders, s.deps.Mailer != nil && s.deps.NotifyTo != "", func(ctx context.Context) error {
			_, err := s.ScanReminders(ctx)
			return err
		}},
		{"exchange-rate", sched.Rate, s.deps.Rates != nil && s.deps.RateStore != nil, func(ctx context.Context) error {
			_, err := s.RefreshRate(ctx)
			return err
		}},
		{"prayer-times", sched.Prayer, s.deps.Prayers != nil && s.deps.Locator != nil, func(ctx context.Context) error {
			_, err := s.RefreshPrayerTimes(ctx)
			return err
		}},
	}
	for _, j := range jobs {
		if j.spec == "" || !j.enabled {
			s.log.WithField("job", j.name).Info("Scheduled job disabled")
			continue
		}
		j := j
		_, err := s.cron.AddFunc(j.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := j.run(ctx); err != nil {
				s.log.WithField("job", j.name).Errorf("Scheduled job failed: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s job: %w", j.name, err)
		}
		s.log.WithFields(logrus.Fields{"job": j.name, "spec": j.spec}).Info("Scheduled job registered")
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron and waits for running jobs until ctx ends
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) runSync(ctx context.Context) error {
	res := s.deps.Syncer.SyncAll(ctx)
	if !res.Success {
		return fmt.Errorf("sync: %s", res.Message)
	}
	return nil
}

// RefreshRate fetches the official USD rate and stores it remotely and in
// the local finance document
func (s *Scheduler) RefreshRate(ctx context.Context) (float64, error) {
	rate, err := s.deps.Rates.GetOfficialRate(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch exchange rate: %w", err)
	}
	n, err := s.deps.RateStore.UpdateExchangeRate(ctx, rate, s.deps.Store.Now().UTC())
	if err != nil {
		return 0, err
	}

	doc, err := s.deps.Store.Finances(ctx)
	if err != nil {
		return 0, err
	}
	doc.ExchangeRate = rate
	if err := s.deps.Store.SetFinances(ctx, doc); err != nil {
		return 0, err
	}
	s.log.WithField("rows", n).Infof("Exchange rate refreshed: %.2f", rate)
	return rate, nil
}

// RefreshPrayerTimes caches today's prayer times for the device position
func (s *Scheduler) RefreshPrayerTimes(ctx context.Context) (models.PrayerTimes, error) {
	pos, err := s.deps.Locator.Locate(ctx)
	if err != nil {
		return models.PrayerTimes{}, fmt.Errorf("failed to locate: %w", err)
	}
	today := s.deps.Store.Now()
	times, err := s.deps.Prayers.GetTimings(ctx, today, pos)
	if err != nil {
		return models.PrayerTimes{}, fmt.Errorf("failed to fetch prayer times: %w", err)
	}
	err = s.deps.Store.SetPrayerCache(ctx, models.PrayerCache{
		Times:  times,
		Source: "aladhan",
		Date:   today.Format("2006-01-02"),
	})
	if err != nil {
		return models.PrayerTimes{}, err
	}
	return times, nil
}

// dueForReminder reports whether now lies inside the reminder window of apt
func dueForReminder(apt models.Appointment, now time.Time) (time.Time, bool) {
	if apt.IsCompleted {
		return time.Time{}, false
	}
	start, err := apt.StartsAt(now.Location())
	if err != nil {
		return time.Time{}, false
	}
	window := time.Duration(apt.ReminderMinutes) * time.Minute
	return start, !now.Before(start.Add(-window)) && now.Before(start)
}

// ScanReminders mails every appointment that entered its reminder window
// and has not been reminded yet. It returns how many mails went out.
func (s *Scheduler) ScanReminders(ctx context.Context) (int, error) {
	apts, err := s.deps.Store.Appointments(ctx)
	if err != nil {
		return 0, err
	}
	now := s.deps.Store.Now()

	sent := 0
	for _, apt := range apts {
		start, due := dueForReminder(apt, now)
		if !due {
			continue
		}
		done, err := s.deps.Store.Reminded(ctx, apt.ID)
		if err != nil {
			return sent, err
		}
		if done {
			continue
		}
		if err := s.deps.Mailer.SendAppointmentReminder(s.deps.NotifyTo, apt, start, now); err != nil {
			s.log.WithField("appointment_id", apt.ID).Warnf("Reminder not sent: %v", err)
			continue
		}
		if err := s.deps.Store.MarkReminded(ctx, apt.ID); err != nil {
			return sent, err
		}
		sent++
		if s.deps.Publisher != nil {
			s.deps.Publisher.Publish(events.Event{Type: events.TypeReminderSent, Timestamp: now.UTC(), Data: apt})
		}
	}
	return sent, nil
}
