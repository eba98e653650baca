package parser

import (
	"regexp"
	"strings"

	"github.com/Dan9191/barakah/internal/models"
)

const (
	defaultExpenseDescription = "مصروف"
	defaultIncomeDescription  = "دخل"
)

var (
	greetingKeywords    = []string{"مرحبا", "السلام عليكم", "اهلا", "صباح الخير", "مساء الخير", "هلا", "هاي"}
	helpKeywords        = []string{"مساعدة", "ساعدني", "كيف", "ماذا يمكنك", "ماذا تستطيع", "اوامر"}
	expenseKeywords     = []string{"اضف", "أضف", "سجل", "خصم", "صرفت", "دفعت", "اشتريت", "مصروف", "مصاريف", "شراء"}
	incomeKeywords      = []string{"دخل", "راتب", "استلمت", "قبضت", "ايراد", "ربح"}
	balanceKeywords     = []string{"رصيد", "كم معي", "كم عندي", "ميزانية", "حد يومي", "كم باقي", "كم المبلغ"}
	prayerKeywords      = []string{"صلاة", "صلاه", "فجر", "ظهر", "عصر", "مغرب", "عشاء", "اذان", "أذان", "وقت الصلاة"}
	appointmentKeywords = []string{"موعد", "اجتماع", "ذكرني", "تذكير", "مهمة", "حجز"}
	symptomKeywords     = []string{"اشعر", "أشعر", "عندي", "لدي", "مريض", "صحة", "الم", "ألم", "صداع", "حرارة"}
	locationKeywords    = []string{"موقع", "موقف", "سيارة", "احفظ المكان", "اين انا"}

	descriptionRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:على|ل|من اجل|بسبب)\s+(.+?)(?:\s|$)`),
		regexp.MustCompile(`(?i)(?:للـ?|لـ)\s*(.+)`),
	}
)

// rule maps a keyword list to an intent. Rules are evaluated in slice order
// and the first match wins, so a later rule never sees text an earlier one
// already claimed.
type rule struct {
	intent   models.Intent
	keywords []string
	build    func(original, normalized string) models.ParsedCommand
}

var rules = []rule{
	{models.IntentGreeting, greetingKeywords, fixed(models.IntentGreeting, 0.9)},
	{models.IntentHelp, helpKeywords, fixed(models.IntentHelp, 0.9)},
	{models.IntentAddExpense, expenseKeywords, buildExpense},
	{models.IntentAddIncome, incomeKeywords, buildIncome},
	{models.IntentQueryBalance, balanceKeywords, fixed(models.IntentQueryBalance, 0.9)},
	{models.IntentQueryPrayer, prayerKeywords, fixed(models.IntentQueryPrayer, 0.9)},
	{models.IntentAddAppointment, appointmentKeywords, withDescription(models.IntentAddAppointment, 0.7)},
	{models.IntentAddSymptom, symptomKeywords, withDescription(models.IntentAddSymptom, 0.7)},
	{models.IntentSaveLocation, locationKeywords, fixed(models.IntentSaveLocation, 0.8)},
}

// Parse classifies free text into a command. It never fails; text matching
// no rule yields the unknown intent with zero confidence.
func Parse(text string) models.ParsedCommand {
	normalized := normalize(text)
	for _, r := range rules {
		if containsKeyword(normalized, r.keywords) {
			return r.build(text, normalized)
		}
	}
	return models.ParsedCommand{Intent: models.IntentUnknown, Confidence: 0}
}

// RulesParser adapts Parse to the assistant's parser dependency
type RulesParser struct{}

func NewRulesParser() *RulesParser { return &RulesParser{} }

func (p *RulesParser) Parse(text string) models.ParsedCommand { return Parse(text) }

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsKeyword(normalized string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(normalized, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func fixed(intent models.Intent, confidence float64) func(string, string) models.ParsedCommand {
	return func(string, string) models.ParsedCommand {
		return models.ParsedCommand{Intent: intent, Confidence: confidence}
	}
}

func withDescription(intent models.Intent, confidence float64) func(string, string) models.ParsedCommand {
	return func(original, _ string) models.ParsedCommand {
		return models.ParsedCommand{
			Intent:     intent,
			Entities:   models.Entities{Description: original},
			Confidence: confidence,
		}
	}
}

func buildExpense(original, normalized string) models.ParsedCommand {
	cmd := buildMoney(models.IntentAddExpense, original, normalized)
	cmd.Entities.Description = guessDescription(original)
	return cmd
}

func buildIncome(original, normalized string) models.ParsedCommand {
	cmd := buildMoney(models.IntentAddIncome, original, normalized)
	cmd.Entities.Description = defaultIncomeDescription
	return cmd
}

func buildMoney(intent models.Intent, original, normalized string) models.ParsedCommand {
	amount, ok := ExtractNumber(original)
	confidence := 0.5
	if ok && amount != 0 {
		confidence = 0.85
	}
	return models.ParsedCommand{
		Intent: intent,
		Entities: models.Entities{
			Amount:   amount,
			Currency: guessCurrency(normalized),
		},
		Confidence: confidence,
	}
}

func guessCurrency(normalized string) models.Currency {
	if strings.Contains(normalized, "دولار") || strings.Contains(normalized, "usd") {
		return models.CurrencyUSD
	}
	return models.CurrencyARS
}

func guessDescription(original string) string {
	for _, re := range descriptionRes {
		if m := re.FindStringSubmatch(original); len(m) >= 2 {
			return strings.TrimSpace(m[1])
		}
	}
	return defaultExpenseDescription
}
