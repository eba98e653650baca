package assistant

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Dan9191/barakah/internal/models"
	"github.com/Dan9191/barakah/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	msgMissingAmount = `لم أفهم المبلغ. قل مثلاً: "أضف 500 بيزو"`
	msgLoginRequired = "يجب تسجيل الدخول أولاً"
	msgNoFinance     = "لم يتم العثور على بياناتك المالية"
	msgSaveFailed    = "فشل في حفظ المعاملة"
	msgBalanceLogin  = "يجب تسجيل الدخول"
	msgBalanceNoData = "لا توجد بيانات مالية"
	msgBalanceFailed = "فشل في جلب الرصيد"
)

// ErrNoUser is returned when no user is signed in
var ErrNoUser = errors.New("no signed-in user")

const (
	transactionSource = "assistant"
	transactionStatus = "completed"
	allowanceDays     = 30
)

var arabicPrinter = message.NewPrinter(language.Arabic)

func currencyName(c models.Currency) string {
	if c == models.CurrencyUSD {
		return "دولار"
	}
	return "بيزو"
}

func (e *Executor) handleFinance(ctx context.Context, cmd models.ParsedCommand, kind models.TransactionType) CommandResult {
	amount := cmd.Entities.Amount
	if amount <= 0 {
		return CommandResult{Success: false, Message: msgMissingAmount}
	}
	currency := cmd.Entities.Currency
	if currency == "" {
		currency = models.CurrencyARS
	}

	userID, err := e.users.CurrentUserID(ctx)
	if err != nil || userID == "" {
		return CommandResult{Success: false, Message: msgLoginRequired}
	}
	log := e.log.WithField("user_id", userID)

	rec, err := e.finance.GetFinance(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return CommandResult{Success: false, Message: msgNoFinance}
	}
	if err != nil {
		log.Errorf("Failed to load finance record: %v", err)
		return CommandResult{Success: false, Message: msgSaveFailed}
	}

	now := e.store.Now().UTC()
	delta := decimal.NewFromFloat(amount)
	if kind == models.TransactionExpense {
		delta = delta.Neg()
	}
	ars := decimal.NewFromFloat(rec.CurrentBalanceARS)
	usd := decimal.NewFromFloat(rec.CurrentBalanceUSD)
	if currency == models.CurrencyUSD {
		usd = usd.Add(delta)
	} else {
		ars = ars.Add(delta)
	}

	pending := make([]models.Transaction, 0, len(rec.PendingExpenses)+1)
	pending = append(pending, rec.PendingExpenses...)
	pending = append(pending, models.Transaction{
		ID:          uuid.NewString(),
		Amount:      amount,
		Currency:    currency,
		Type:        kind,
		Description: cmd.Entities.Description,
		Timestamp:   now,
		Status:      transactionStatus,
		Source:      transactionSource,
	})

	err = e.finance.UpdateFinance(ctx, userID, models.FinanceUpdate{
		CurrentBalanceARS: ars.InexactFloat64(),
		CurrentBalanceUSD: usd.InexactFloat64(),
		PendingExpenses:   pending,
		UpdatedAt:         now,
	})
	if err != nil {
		log.Errorf("Failed to save transaction: %v", err)
		return CommandResult{Success: false, Message: msgSaveFailed}
	}

	verb, action := "خصم", ActionExpenseAdded
	if kind == models.TransactionIncome {
		verb, action = "إضافة", ActionIncomeAdded
	}
	msg := "✅ تم " + verb + " " + strconv.FormatFloat(amount, 'f', -1, 64) + " " + currencyName(currency)
	if desc := cmd.Entities.Description; desc != "" && desc != "مصروف" && desc != "دخل" {
		msg += " لـ" + desc
	}
	log.WithField("amount", amount).Infof("Recorded %s", kind)
	return CommandResult{Success: true, Message: msg, Agent: AgentMohamed, Action: action}
}

// balanceSummary converts the USD balance at the stored rate and derives a
// flat daily allowance over thirty days
func balanceSummary(rec *models.FinanceRecord) (total, daily decimal.Decimal) {
	rate := decimal.NewFromFloat(rec.ExchangeRate)
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	total = decimal.NewFromFloat(rec.CurrentBalanceARS).
		Add(decimal.NewFromFloat(rec.CurrentBalanceUSD).Mul(rate))
	daily = total.Sub(decimal.NewFromFloat(rec.EmergencyBuffer)).Div(decimal.NewFromInt(allowanceDays))
	if daily.IsNegative() {
		daily = decimal.Zero
	}
	return total, daily
}

func (e *Executor) handleBalance(ctx context.Context) CommandResult {
	userID, err := e.users.CurrentUserID(ctx)
	if err != nil || userID == "" {
		return CommandResult{Success: false, Message: msgBalanceLogin}
	}
	rec, err := e.finance.GetFinance(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return CommandResult{Success: false, Message: msgBalanceNoData}
	}
	if err != nil {
		e.log.WithField("user_id", userID).Errorf("Failed to load balance: %v", err)
		return CommandResult{Success: false, Message: msgBalanceFailed}
	}

	total, daily := balanceSummary(rec)
	msg := arabicPrinter.Sprintf("💰 رصيدك: %v بيزو\n📊 الحد اليومي: %v بيزو",
		number.Decimal(total.InexactFloat64(), number.MaxFractionDigits(3)),
		number.Decimal(daily.InexactFloat64(), number.MaxFractionDigits(0)))
	return CommandResult{Success: true, Message: msg, Agent: AgentMohamed}
}

// Transactions returns the signed-in user's ledger. A user without a
// finance row has an empty ledger.
func (e *Executor) Transactions(ctx context.Context) ([]models.Transaction, error) {
	userID, err := e.users.CurrentUserID(ctx)
	if err != nil || userID == "" {
		return nil, ErrNoUser
	}
	rec, err := e.finance.GetFinance(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return []models.Transaction{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load finance record: %w", err)
	}
	if rec.PendingExpenses == nil {
		return []models.Transaction{}, nil
	}
	return rec.PendingExpenses, nil
}
