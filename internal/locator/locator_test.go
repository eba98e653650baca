package locator

import (
	"context"
	"testing"

	"github.com/Dan9191/barakah/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	var l FromContext

	_, err := l.Locate(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)

	want := models.Position{Latitude: -34.6037, Longitude: -58.3816}
	got, err := l.Locate(WithPosition(context.Background(), want))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = l.Locate(WithPosition(context.Background(), models.Position{Latitude: 120}))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestParsePosition(t *testing.T) {
	pos, err := ParsePosition(" -34.6, -58.4 ")
	require.NoError(t, err)
	assert.Equal(t, models.Position{Latitude: -34.6, Longitude: -58.4}, pos)

	pos, err = ParsePosition("geo:21.42,39.82")
	require.NoError(t, err)
	assert.Equal(t, 21.42, pos.Latitude)

	_, err = ParsePosition("nowhere")
	assert.Error(t, err)
}

func TestFallback(t *testing.T) {
	home := models.Position{Latitude: 1, Longitude: 2}
	l := Fallback{FromContext{}, Fixed{Position: home}}

	got, err := l.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, home, got)

	reported := models.Position{Latitude: 3, Longitude: 4}
	got, err = l.Locate(WithPosition(context.Background(), reported))
	require.NoError(t, err)
	assert.Equal(t, reported, got)

	_, err = Fallback{}.Locate(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
