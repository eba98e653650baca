package backup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Dan9191/barakah/internal/localstore"
	"github.com/Dan9191/barakah/internal/models"
	"github.com/Dan9191/barakah/internal/state"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user string

func (u user) CurrentUserID(context.Context) (string, error) {
	if u == "" {
		return "", errors.New("anonymous")
	}
	return string(u), nil
}

func newStore() *state.Store {
	log := logrus.New()
	log.SetOutput(io.Discard)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	return state.NewStore(localstore.NewMemoryKV(), log, func() time.Time { return now })
}

func seed(t *testing.T, s *state.Store) {
	t.Helper()
	ctx := context.Background()
	_, err := s.AddTask(ctx, models.Task{Title: "قراءة", Subtasks: []models.SubTask{{ID: "a", Completed: true}, {ID: "b"}}})
	require.NoError(t, err)
	_, err = s.AddLocation(ctx, models.Location{Title: "البيت", URL: "geo:1,2", Category: models.CategoryHome})
	require.NoError(t, err)
	_, err = s.AddAppointment(ctx, models.Appointment{Title: "طبيب", Date: "2025-03-11", Time: "10:00"})
	require.NoError(t, err)
	_, err = s.AddIncome(ctx, models.Income{Amount: 500})
	require.NoError(t, err)
	_, err = s.AddSymptom(ctx, "صداع")
	require.NoError(t, err)
}

func TestRoundTrip(t *testing.T) {
	for name, key := range map[string]string{"plain": "", "encrypted": "0123456789abcdef"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			log := logrus.New()
			log.SetOutput(io.Discard)

			src := newStore()
			seed(t, src)
			raw, err := NewService(src, user("u1"), key, "secret", log).Export(ctx)
			require.NoError(t, err)

			var archive Archive
			require.NoError(t, json.Unmarshal(raw, &archive))
			assert.Equal(t, key != "", archive.Encrypted)

			dst := newStore()
			env, err := NewService(dst, user(""), key, "secret", log).Import(ctx, raw)
			require.NoError(t, err)
			assert.Equal(t, "u1", env.UserID)
			assert.Equal(t, Version, env.Version)

			tasks, err := dst.Tasks(ctx)
			require.NoError(t, err)
			require.Len(t, tasks, 1)
			assert.Equal(t, 50, tasks[0].Progress)

			doc, err := dst.Finances(ctx)
			require.NoError(t, err)
			assert.Equal(t, 500.0, doc.Balance)

			symptoms, err := dst.Symptoms(ctx)
			require.NoError(t, err)
			assert.Len(t, symptoms, 1)
		})
	}
}

func TestImportRejectsTampering(t *testing.T) {
	ctx := context.Background()
	log := logrus.New()
	log.SetOutput(io.Discard)
	src := newStore()
	seed(t, src)
	svc := NewService(src, user("u1"), "", "secret", log)

	raw, err := svc.Export(ctx)
	require.NoError(t, err)

	var archive Archive
	require.NoError(t, json.Unmarshal(raw, &archive))
	archive.Payload = json.RawMessage(`{"version":"1.0","userId":"evil","data":{}}`)
	tampered, err := json.Marshal(archive)
	require.NoError(t, err)

	_, err = svc.Import(ctx, tampered)
	assert.ErrorIs(t, err, ErrBadSignature)

	_, err = NewService(newStore(), user(""), "", "other-secret", log).Import(ctx, raw)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestImportEncryptedWithoutKey(t *testing.T) {
	ctx := context.Background()
	log := logrus.New()
	log.SetOutput(io.Discard)
	src := newStore()
	seed(t, src)

	raw, err := NewService(src, user("u1"), "0123456789abcdef", "secret", log).Export(ctx)
	require.NoError(t, err)

	_, err = NewService(newStore(), user(""), "", "secret", log).Import(ctx, raw)
	assert.ErrorIs(t, err, ErrNoKey)
}
