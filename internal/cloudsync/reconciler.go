package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Dan9191/barakah/internal/events"
	"github.com/Dan9191/barakah/internal/models"
	"github.com/Dan9191/barakah/internal/repository"
	"github.com/Dan9191/barakah/internal/state"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	msgSynced      = "تمت المزامنة بنجاح"
	msgPulled      = "تم سحب البيانات"
	msgNotLoggedIn = "المستخدم غير مسجل الدخول"
)

// Finance document outcomes
const (
	FinanceInserted = "inserted"
	FinancePushed   = "pushed"
	FinancePulled   = "pulled"
)

// Remote is the hosted replica, filtered by user id.
// GetFinanceDocument returns repository.ErrNotFound when the user has no row.
type Remote interface {
	ListLocations(ctx context.Context, userID string) ([]models.Location, error)
	UpsertLocations(ctx context.Context, userID string, items []models.Location) error
	ListTasks(ctx context.Context, userID string) ([]models.Task, error)
	UpsertTasks(ctx context.Context, userID string, items []models.Task) error
	ListAppointments(ctx context.Context, userID string) ([]models.Appointment, error)
	UpsertAppointments(ctx context.Context, userID string, items []models.Appointment) error
	GetFinanceDocument(ctx context.Context, userID string) (*models.RemoteFinanceDocument, error)
	InsertFinanceDocument(ctx context.Context, userID string, doc models.FinanceDocument, at time.Time) error
	UpdateFinanceDocument(ctx context.Context, userID string, doc models.FinanceDocument, at time.Time) error
}

// UserResolver reports the signed-in user
type UserResolver interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// Publisher receives sync notifications
type Publisher interface {
	Publish(events.Event)
}

// Counts is how many items moved each way for one collection
type Counts struct {
	Uploaded int `json:"uploaded"`
	Pulled   int `json:"pulled"`
}

// Result is the outcome of SyncAll or PullAll
type Result struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	Locations    Counts    `json:"locations"`
	Tasks        Counts    `json:"tasks"`
	Appointments Counts    `json:"appointments"`
	Finance      string    `json:"finance,omitempty"`
	SyncedAt     time.Time `json:"syncedAt,omitempty"`
}

// Reconciler merges the local store with the remote replica
type Reconciler struct {
	remote Remote
	store  *state.Store
	users  UserResolver
	pub    Publisher
	log    *logrus.Logger

	mu     sync.Mutex
	userID string
}

func NewReconciler(remote Remote, store *state.Store, users UserResolver, pub Publisher, log *logrus.Logger) *Reconciler {
	return &Reconciler{remote: remote, store: store, users: users, pub: pub, log: log}
}

// resolveUser returns the cached user id, asking the resolver on first use
func (r *Reconciler) resolveUser(ctx context.Context) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.userID != "" {
		return r.userID, true
	}
	id, err := r.users.CurrentUserID(ctx)
	if err != nil || id == "" {
		return "", false
	}
	r.userID = id
	return id, true
}

// ForgetUser drops the cached user id, e.g. after logout
func (r *Reconciler) ForgetUser() {
	r.mu.Lock()
	r.userID = ""
	r.mu.Unlock()
}

// SyncAll reconciles every collection concurrently. Each collection runs to
// completion; a failure in one neither cancels nor undoes the others.
func (r *Reconciler) SyncAll(ctx context.Context) Result {
	userID, ok := r.resolveUser(ctx)
	if !ok {
		return Result{Success: false, Message: msgNotLoggedIn}
	}
	log := r.log.WithField("user_id", userID)

	var res Result
	var g errgroup.Group
	g.Go(func() error {
		c, err := syncCollection(ctx, userID, r.store.Locations, r.remote.ListLocations, r.remote.UpsertLocations, r.store.UpdateLocations)
		res.Locations = c
		return wrap("locations", err)
	})
	g.Go(func() error {
		c, err := syncCollection(ctx, userID, r.store.Tasks, r.remote.ListTasks, r.remote.UpsertTasks, r.store.UpdateTasks)
		res.Tasks = c
		return wrap("tasks", err)
	})
	g.Go(func() error {
		c, err := syncCollection(ctx, userID, r.store.Appointments, r.remote.ListAppointments, r.remote.UpsertAppointments, r.store.UpdateAppointments)
		res.Appointments = c
		return wrap("appointments", err)
	})
	g.Go(func() error {
		outcome, err := r.syncFinance(ctx, userID)
		res.Finance = outcome
		return wrap("finances", err)
	})
	if err := g.Wait(); err != nil {
		log.Errorf("Sync failed: %v", err)
		return Result{Success: false, Message: err.Error()}
	}

	at, err := r.store.MarkSynced(ctx)
	if err != nil {
		log.Errorf("Failed to record sync time: %v", err)
		return Result{Success: false, Message: err.Error()}
	}
	res.Success = true
	res.Message = msgSynced
	res.SyncedAt = at

	log.WithFields(logrus.Fields{
		"locations":    res.Locations,
		"tasks":        res.Tasks,
		"appointments": res.Appointments,
		"finance":      res.Finance,
	}).Info("Sync completed")
	r.publish(res)
	return res
}

func wrap(collection string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to sync %s: %w", collection, err)
}

func syncCollection[T Record](
	ctx context.Context,
	userID string,
	local func(context.Context) ([]T, error),
	list func(context.Context, string) ([]T, error),
	upsert func(context.Context, string, []T) error,
	update func(context.Context, func([]T) []T) error,
) (Counts, error) {
	remote, err := list(ctx, userID)
	if err != nil {
		return Counts{}, err
	}
	items, err := local(ctx)
	if err != nil {
		return Counts{}, err
	}

	plan := Diff(items, remote)
	if len(plan.Upload) > 0 {
		if err := upsert(ctx, userID, plan.Upload); err != nil {
			return Counts{}, err
		}
	}
	if len(plan.Pull) > 0 {
		err := update(ctx, func(current []T) []T { return Apply(current, plan.Pull) })
		if err != nil {
			return Counts{Uploaded: len(plan.Upload)}, err
		}
	}
	return Counts{Uploaded: len(plan.Upload), Pulled: len(plan.Pull)}, nil
}

// syncFinance reconciles the singleton finance document. The local document
// carries no modification time, so the call time stands in for it.
func (r *Reconciler) syncFinance(ctx context.Context, userID string) (string, error) {
	doc, err := r.store.Finances(ctx)
	if err != nil {
		return "", err
	}
	now := r.store.Now().UTC()

	remote, err := r.remote.GetFinanceDocument(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		if err := r.remote.InsertFinanceDocument(ctx, userID, doc, now); err != nil {
			return "", err
		}
		return FinanceInserted, nil
	}
	if err != nil {
		return "", err
	}

	if now.After(remote.UpdatedAt) {
		if err := r.remote.UpdateFinanceDocument(ctx, userID, doc, now); err != nil {
			return "", err
		}
		return FinancePushed, nil
	}
	if err := r.store.SetFinances(ctx, remote.Data); err != nil {
		return "", err
	}
	return FinancePulled, nil
}

// PullAll overwrites every local collection with the remote state
func (r *Reconciler) PullAll(ctx context.Context) Result {
	userID, ok := r.resolveUser(ctx)
	if !ok {
		return Result{Success: false, Message: msgNotLoggedIn}
	}

	var res Result
	var g errgroup.Group
	g.Go(func() error {
		items, err := r.remote.ListLocations(ctx, userID)
		if err != nil {
			return wrap("locations", err)
		}
		res.Locations.Pulled = len(items)
		return wrap("locations", r.store.SetLocations(ctx, items))
	})
	g.Go(func() error {
		items, err := r.remote.ListTasks(ctx, userID)
		if err != nil {
			return wrap("tasks", err)
		}
		res.Tasks.Pulled = len(items)
		return wrap("tasks", r.store.SetTasks(ctx, items))
	})
	g.Go(func() error {
		items, err := r.remote.ListAppointments(ctx, userID)
		if err != nil {
			return wrap("appointments", err)
		}
		res.Appointments.Pulled = len(items)
		return wrap("appointments", r.store.SetAppointments(ctx, items))
	})
	g.Go(func() error {
		doc, err := r.remote.GetFinanceDocument(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return wrap("finances", err)
		}
		res.Finance = FinancePulled
		return wrap("finances", r.store.SetFinances(ctx, doc.Data))
	})
	if err := g.Wait(); err != nil {
		r.log.WithField("user_id", userID).Errorf("Pull failed: %v", err)
		return Result{Success: false, Message: err.Error()}
	}

	at, err := r.store.MarkSynced(ctx)
	if err != nil {
		return Result{Success: false, Message: err.Error()}
	}
	res.Success = true
	res.Message = msgPulled
	res.SyncedAt = at
	r.log.WithField("user_id", userID).Info("Pulled remote state")
	r.publish(res)
	return res
}

func (r *Reconciler) publish(res Result) {
	if r.pub == nil {
		return
	}
	r.pub.Publish(events.Event{Type: events.TypeSyncCompleted, Timestamp: res.SyncedAt, Data: res})
}
