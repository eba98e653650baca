package assistant

import (
	"context"
	"fmt"
	"sync"

	"github.com/Dan9191/barakah/internal/events"
	"github.com/Dan9191/barakah/internal/models"
	"github.com/google/uuid"
)

const (
	msgLocating      = "📍 جاري حفظ الموقع الحالي..."
	msgNoGeolocation = "الجهاز لا يدعم تحديد الموقع"
	msgLocateFailed  = "تعذر تحديد الموقع الحالي"
)

// Pending is the second phase of a command that finishes in the background
type Pending struct {
	ID string `json:"id"`

	done   chan struct{}
	once   sync.Once
	result CommandResult
}

func newPending() *Pending {
	return &Pending{ID: uuid.NewString(), done: make(chan struct{})}
}

func (p *Pending) complete(res CommandResult) {
	p.once.Do(func() {
		p.result = res
		close(p.done)
	})
}

// Done is closed once the background work has finished
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the work completes or ctx ends
func (p *Pending) Wait(ctx context.Context) (CommandResult, error) {
	select {
	case <-p.done:
		return p.result, nil
	default:
	}
	select {
	case <-p.done:
		return p.result, nil
	case <-ctx.Done():
		return CommandResult{}, ctx.Err()
	}
}

// LocationEvent is the payload of location_saved and location_failed
type LocationEvent struct {
	PendingID string           `json:"pendingId"`
	Location  *models.Location `json:"location,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// handleLocation acknowledges at once and stores the parking spot when the
// position arrives. The outcome reaches the caller through the Pending
// handle and a published event.
func (e *Executor) handleLocation(ctx context.Context) CommandResult {
	if e.locator == nil {
		return CommandResult{Success: false, Message: msgNoGeolocation}
	}

	p := newPending()
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.locateTimeout)
	go func() {
		defer cancel()
		p.complete(e.saveParking(bg, p.ID))
	}()

	return CommandResult{Success: true, Message: msgLocating, Action: ActionLocationPending, Pending: p}
}

func (e *Executor) saveParking(ctx context.Context, pendingID string) CommandResult {
	pos, err := e.locator.Locate(ctx)
	if err != nil {
		e.log.Warnf("Failed to locate device: %v", err)
		e.publish(events.Event{Type: events.TypeLocationFailed, Data: LocationEvent{PendingID: pendingID, Error: err.Error()}})
		return CommandResult{Success: false, Message: msgLocateFailed}
	}

	now := e.store.Now()
	loc, err := e.store.AddLocation(ctx, models.Location{
		Title:    fmt.Sprintf("موقف %d/%d/%d", now.Day(), int(now.Month()), now.Year()),
		URL:      pos.GeoURL(),
		Category: models.CategoryParking,
	})
	if err != nil {
		e.log.Errorf("Failed to store location: %v", err)
		e.publish(events.Event{Type: events.TypeLocationFailed, Data: LocationEvent{PendingID: pendingID, Error: err.Error()}})
		return CommandResult{Success: false, Message: msgError}
	}

	e.publish(events.Event{Type: events.TypeLocationSaved, Data: LocationEvent{PendingID: pendingID, Location: &loc}})
	return CommandResult{Success: true, Message: "📍 تم حفظ الموقع: " + loc.Title, Action: ActionLocationSaved}
}
