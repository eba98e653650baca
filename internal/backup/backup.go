package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/barakah/internal/models"
	"github.com/Dan9191/barakah/internal/state"
	"github.com/Dan9191/barakah/internal/utils"
	"github.com/sirupsen/logrus"
)

// Version of the envelope written by Export
const Version = "1.0"

var (
	ErrBadSignature       = errors.New("backup signature mismatch")
	ErrUnsupportedVersion = errors.New("unsupported backup version")
	ErrNoKey              = errors.New("backup is encrypted but no key is configured")
)

// Data is every local collection
type Data struct {
	Locations    []models.Location      `json:"locations"`
	Tasks        []models.Task          `json:"tasks"`
	Appointments []models.Appointment   `json:"appointments"`
	Finances     models.FinanceDocument `json:"finances"`
	Symptoms     []models.Symptom       `json:"symptoms"`
}

// Envelope is the exported backup document
type Envelope struct {
	Version    string    `json:"version"`
	ExportDate time.Time `json:"exportDate"`
	UserID     string    `json:"userId"`
	Data       Data      `json:"data"`
}

// Archive wraps the envelope, encrypted or not, with its signature
type Archive struct {
	Encrypted bool            `json:"encrypted"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

// UserResolver reports the signed-in user, if any
type UserResolver interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// Service exports and restores the local store
type Service struct {
	store  *state.Store
	users  UserResolver
	key    []byte
	secret string
	log    *logrus.Logger
}

// NewService builds a backup service. An empty key writes plain archives.
func NewService(store *state.Store, users UserResolver, key, secret string, log *logrus.Logger) *Service {
	return &Service{store: store, users: users, key: []byte(key), secret: secret, log: log}
}

func (s *Service) snapshot(ctx context.Context) (Data, error) {
	var (
		d   Data
		err error
	)
	if d.Locations, err = s.store.Locations(ctx); err != nil {
		return d, err
	}
	if d.Tasks, err = s.store.Tasks(ctx); err != nil {
		return d, err
	}
	if d.Appointments, err = s.store.Appointments(ctx); err != nil {
		return d, err
	}
	if d.Finances, err = s.store.Finances(ctx); err != nil {
		return d, err
	}
	if d.Symptoms, err = s.store.Symptoms(ctx); err != nil {
		return d, err
	}
	return d, nil
}

// Export serializes the local store into a signed archive
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	data, err := s.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read local state: %w", err)
	}
	userID, _ := s.users.CurrentUserID(ctx)
	env := Envelope{
		Version:    Version,
		ExportDate: s.store.Now().UTC(),
		UserID:     userID,
		Data:       data,
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	archive := Archive{}
	if len(s.key) > 0 {
		sealed, err := utils.Encrypt(payload, s.key)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt backup: %w", err)
		}
		if payload, err = json.Marshal(sealed); err != nil {
			return nil, fmt.Errorf("failed to encode backup: %w", err)
		}
		archive.Encrypted = true
	}
	archive.Payload = payload
	archive.Signature = utils.GenerateHMAC(payload, s.secret)

	out, err := json.Marshal(archive)
	if err != nil {
		return nil, fmt.Errorf("failed to encode archive: %w", err)
	}
	s.log.WithField("user_id", userID).Infof("Exported backup of %d tasks, %d appointments, %d locations",
		len(data.Tasks), len(data.Appointments), len(data.Locations))
	return out, nil
}

// Open verifies and decodes an archive without touching the store
func (s *Service) Open(raw []byte) (*Envelope, error) {
	var archive Archive
	if err := json.Unmarshal(raw, &archive); err != nil {
		return nil, fmt.Errorf("failed to decode archive: %w", err)
	}
	if !utils.VerifyHMAC(archive.Payload, archive.Signature, s.secret) {
		return nil, ErrBadSignature
	}

	payload := []byte(archive.Payload)
	if archive.Encrypted {
		if len(s.key) == 0 {
			return nil, ErrNoKey
		}
		var sealed string
		if err := json.Unmarshal(payload, &sealed); err != nil {
			return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
		}
		plain, err := utils.Decrypt(sealed, s.key)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt backup: %w", err)
		}
		payload = plain
	}

	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if env.Version != Version {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, env.Version)
	}
	return &env, nil
}

// Import verifies an archive and replaces the local store with its contents
func (s *Service) Import(ctx context.Context, raw []byte) (*Envelope, error) {
	env, err := s.Open(raw)
	if err != nil {
		return nil, err
	}
	if err := s.Restore(ctx, env); err != nil {
		return nil, err
	}
	return env, nil
}

// Restore replaces the local store with an opened envelope
func (s *Service) Restore(ctx context.Context, env *Envelope) error {
	d := env.Data
	for i := range d.Tasks {
		if d.Tasks[i].Subtasks == nil {
			d.Tasks[i].Subtasks = []models.SubTask{}
		}
		d.Tasks[i].Progress = models.CalculateProgress(d.Tasks[i].Subtasks)
	}
	if d.Finances.Expenses == nil {
		d.Finances.Expenses = []models.Expense{}
	}
	if d.Finances.Income == nil {
		d.Finances.Income = []models.Income{}
	}

	if err := s.store.SetLocations(ctx, d.Locations); err != nil {
		return err
	}
	if err := s.store.SetTasks(ctx, d.Tasks); err != nil {
		return err
	}
	if err := s.store.SetAppointments(ctx, d.Appointments); err != nil {
		return err
	}
	if err := s.store.SetFinances(ctx, d.Finances); err != nil {
		return err
	}
	if err := s.store.SetSymptoms(ctx, d.Symptoms); err != nil {
		return err
	}
	s.log.WithField("export_date", env.ExportDate).Info("Restored backup")
	return nil
}
