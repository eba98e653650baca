package models

// Intent is the classified meaning of a free-text command
type Intent string

const (
	IntentAddExpense     Intent = "add_expense"
	IntentAddIncome      Intent = "add_income"
	IntentAddAppointment Intent = "add_appointment"
	IntentQueryBalance   Intent = "query_balance"
	IntentQueryPrayer    Intent = "query_prayer"
	IntentAddSymptom     Intent = "add_symptom"
	IntentSaveLocation   Intent = "save_location"
	IntentGreeting       Intent = "greeting"
	IntentHelp           Intent = "help"
	IntentUnknown        Intent = "unknown"
)

// Entities extracted from a command. A zero Amount means no number was found.
type Entities struct {
	Amount      float64  `json:"amount,omitempty"`
	Currency    Currency `json:"currency,omitempty"`
	Description string   `json:"description,omitempty"`
	Date        string   `json:"date,omitempty"`
	Time        string   `json:"time,omitempty"`
}

// ParsedCommand is the ephemeral parser output
type ParsedCommand struct {
	Intent     Intent   `json:"intent"`
	Entities   Entities `json:"entities"`
	Confidence float64  `json:"confidence"`
}
