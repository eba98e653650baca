package assistant

import (
	"context"
	"time"

	"github.com/Dan9191/barakah/internal/events"
	"github.com/Dan9191/barakah/internal/models"
	"github.com/Dan9191/barakah/internal/state"
	"github.com/sirupsen/logrus"
)

// Agents that answer each family of commands
const (
	AgentMohamed = "mohamed" // finance
	AgentAhmed   = "ahmed"   // prayer
	AgentFatima  = "fatima"  // appointments
	AgentHaifa   = "haifa"   // health
)

const (
	ActionExpenseAdded     = "expense_added"
	ActionIncomeAdded      = "income_added"
	ActionAppointmentAdded = "appointment_added"
	ActionSymptomAdded     = "symptom_added"
	ActionLocationPending  = "location_pending"
	ActionLocationSaved    = "location_saved"
)

const (
	msgGreeting = "وعليكم السلام ورحمة الله! كيف يمكنني مساعدتك اليوم؟"
	msgHelp     = `يمكنني مساعدتك في:
• إضافة مصروف: "أضف مصروف 500 بيزو للطعام"
• استعلام الرصيد: "كم رصيدي؟"
• أوقات الصلاة: "متى صلاة المغرب؟"
• إضافة موعد: "ذكرني بموعد الطبيب غداً"
• حفظ الموقع: "احفظ موقف السيارة"`
	msgUnknown = `عذراً، لم أفهم. جرب قول: "أضف مصروف 100" أو "كم رصيدي؟" أو قل "مساعدة" للمزيد.`
	msgError   = "حدث خطأ. حاول مرة أخرى."
)

// CommandResult is what the user sees after a command. Failures are
// reported here rather than as errors.
type CommandResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Action  string   `json:"action,omitempty"`
	Agent   string   `json:"agent,omitempty"`
	Pending *Pending `json:"pending,omitempty"`
}

// FinanceRepository is the remote finance row store.
// GetFinance returns repository.ErrNotFound when the user has no row.
type FinanceRepository interface {
	GetFinance(ctx context.Context, userID string) (*models.FinanceRecord, error)
	UpdateFinance(ctx context.Context, userID string, upd models.FinanceUpdate) error
}

// UserResolver reports the signed-in user
type UserResolver interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// Locator resolves the device position
type Locator interface {
	Locate(ctx context.Context) (models.Position, error)
}

// Publisher receives asynchronous completion events
type Publisher interface {
	Publish(events.Event)
}

// Executor performs the side effect of a parsed command
type Executor struct {
	finance FinanceRepository
	store   *state.Store
	users   UserResolver
	locator Locator
	pub     Publisher
	log     *logrus.Logger

	locateTimeout time.Duration
}

// NewExecutor wires an executor. locator may be nil on devices without
// geolocation; pub may be nil when nobody listens for events.
func NewExecutor(finance FinanceRepository, store *state.Store, users UserResolver, locator Locator, pub Publisher, log *logrus.Logger) *Executor {
	return &Executor{
		finance:       finance,
		store:         store,
		users:         users,
		locator:       locator,
		pub:           pub,
		log:           log,
		locateTimeout: 30 * time.Second,
	}
}

// Execute dispatches on the command intent. It never panics and never
// returns an error; every failure becomes an unsuccessful result.
func (e *Executor) Execute(ctx context.Context, cmd models.ParsedCommand) (res CommandResult) {
	log := e.log.WithField("intent", cmd.Intent)
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Command panicked: %v", r)
			res = CommandResult{Success: false, Message: msgError}
		}
	}()

	switch cmd.Intent {
	case models.IntentGreeting:
		return CommandResult{Success: true, Message: msgGreeting}
	case models.IntentHelp:
		return CommandResult{Success: true, Message: msgHelp}
	case models.IntentAddExpense:
		return e.handleFinance(ctx, cmd, models.TransactionExpense)
	case models.IntentAddIncome:
		return e.handleFinance(ctx, cmd, models.TransactionIncome)
	case models.IntentQueryBalance:
		return e.handleBalance(ctx)
	case models.IntentQueryPrayer:
		return e.handlePrayer(ctx)
	case models.IntentAddAppointment:
		return e.handleAppointment(ctx, cmd)
	case models.IntentAddSymptom:
		return e.handleSymptom(ctx, cmd)
	case models.IntentSaveLocation:
		return e.handleLocation(ctx)
	default:
		return CommandResult{Success: false, Message: msgUnknown}
	}
}

func (e *Executor) publish(ev events.Event) {
	if e.pub == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = e.store.Now().UTC()
	}
	e.pub.Publish(ev)
}
