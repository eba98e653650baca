package state

import (
	"context"
	"errors"
	"time"

	"github.com/Dan9191/barakah/internal/models"
	"github.com/google/uuid"
)

// Finances returns the local finance document, or the default one
func (s *Store) Finances(ctx context.Context) (models.FinanceDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadFinances(ctx)
}

func (s *Store) loadFinances(ctx context.Context) (models.FinanceDocument, error) {
	doc := models.DefaultFinanceDocument()
	if err := s.load(ctx, KeyFinances, &doc); err != nil {
		if errors.Is(err, errCorrupted) {
			return models.DefaultFinanceDocument(), nil
		}
		return models.FinanceDocument{}, err
	}
	return doc, nil
}

func (s *Store) SetFinances(ctx context.Context, doc models.FinanceDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, KeyFinances, doc)
}

// AddExpense records e and lowers the document balance
func (s *Store) AddExpense(ctx context.Context, e models.Expense) (models.FinanceDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadFinances(ctx)
	if err != nil {
		return doc, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	doc.Expenses = append(doc.Expenses, e)
	doc.Balance -= e.Amount
	return doc, s.save(ctx, KeyFinances, doc)
}

// AddIncome records in and raises the document balance
func (s *Store) AddIncome(ctx context.Context, in models.Income) (models.FinanceDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadFinances(ctx)
	if err != nil {
		return doc, err
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	doc.Income = append(doc.Income, in)
	doc.Balance += in.Amount
	return doc, s.save(ctx, KeyFinances, doc)
}

func (s *Store) Symptoms(ctx context.Context) ([]models.Symptom, error) {
	return readList[models.Symptom](ctx, s, KeySymptoms)
}

func (s *Store) SetSymptoms(ctx context.Context, symptoms []models.Symptom) error {
	return writeList(ctx, s, KeySymptoms, symptoms)
}

// AddSymptom appends a symptom note
func (s *Store) AddSymptom(ctx context.Context, description string) (models.Symptom, error) {
	sym := models.Symptom{
		ID:          uuid.NewString(),
		Description: description,
		CreatedAt:   s.now().UTC(),
	}
	_, err := mutateList(ctx, s, KeySymptoms, func(items []models.Symptom) ([]models.Symptom, error) {
		return append(items, sym), nil
	})
	return sym, err
}

// PrayerTimes returns the cached times merged over the defaults
func (s *Store) PrayerTimes(ctx context.Context) (models.PrayerTimes, error) {
	cache, _, err := s.PrayerCache(ctx)
	if err != nil {
		return models.DefaultPrayerTimes(), err
	}
	return models.DefaultPrayerTimes().Merge(cache.Times), nil
}

// PrayerCache returns the stored prayer cache and whether one exists
func (s *Store) PrayerCache(ctx context.Context) (models.PrayerCache, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cache models.PrayerCache
	if err := s.load(ctx, KeyPrayerTimes, &cache); err != nil {
		if errors.Is(err, errCorrupted) {
			return models.PrayerCache{}, false, nil
		}
		return models.PrayerCache{}, false, err
	}
	return cache, cache.Times != (models.PrayerTimes{}), nil
}

func (s *Store) SetPrayerCache(ctx context.Context, cache models.PrayerCache) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, KeyPrayerTimes, cache)
}

// Reminded reports whether a reminder already went out for the appointment
func (s *Store) Reminded(ctx context.Context, appointmentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sent, err := s.loadReminders(ctx)
	if err != nil {
		return false, err
	}
	_, ok := sent[appointmentID]
	return ok, nil
}

// MarkReminded records that a reminder went out for the appointment
func (s *Store) MarkReminded(ctx context.Context, appointmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sent, err := s.loadReminders(ctx)
	if err != nil {
		return err
	}
	sent[appointmentID] = s.now().UTC()
	return s.save(ctx, KeyRemindersSent, sent)
}

func (s *Store) loadReminders(ctx context.Context) (map[string]time.Time, error) {
	sent := map[string]time.Time{}
	if err := s.load(ctx, KeyRemindersSent, &sent); err != nil {
		if errors.Is(err, errCorrupted) {
			return map[string]time.Time{}, nil
		}
		return nil, err
	}
	if sent == nil {
		sent = map[string]time.Time{}
	}
	return sent, nil
}
