package locator

import (
	"context"
	"errors"
	"strings"

	"github.com/Dan9191/barakah/internal/models"
)

// ErrUnavailable means no position was reported for the request
var ErrUnavailable = errors.New("position unavailable")

type ctxKey struct{}

// WithPosition attaches a device-reported position to ctx
func WithPosition(ctx context.Context, pos models.Position) context.Context {
	return context.WithValue(ctx, ctxKey{}, pos)
}

// ParsePosition accepts "lat,lng" or a geo: URL
func ParsePosition(raw string) (models.Position, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "geo:") {
		raw = "geo:" + raw
	}
	return models.ParseGeoURL(raw)
}

// FromContext reads the position the client sent with its request
type FromContext struct{}

func (FromContext) Locate(ctx context.Context) (models.Position, error) {
	pos, ok := ctx.Value(ctxKey{}).(models.Position)
	if !ok {
		return models.Position{}, ErrUnavailable
	}
	if pos.Latitude < -90 || pos.Latitude > 90 || pos.Longitude < -180 || pos.Longitude > 180 {
		return models.Position{}, ErrUnavailable
	}
	return pos, nil
}

// Fixed always reports the same position, e.g. the configured home
type Fixed struct {
	Position models.Position
}

func (f Fixed) Locate(context.Context) (models.Position, error) {
	return f.Position, nil
}

// Fallback tries each locator in turn
type Fallback []interface {
	Locate(ctx context.Context) (models.Position, error)
}

func (f Fallback) Locate(ctx context.Context) (models.Position, error) {
	for _, l := range f {
		if pos, err := l.Locate(ctx); err == nil {
			return pos, nil
		}
	}
	return models.Position{}, ErrUnavailable
}
