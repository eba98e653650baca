package assistant

import (
	"context"

	"github.com/Dan9191/barakah/internal/models"
)

// Parser turns free text into a command
type Parser interface {
	Parse(text string) models.ParsedCommand
}

// Assistant parses and executes free-text commands
type Assistant struct {
	parser   Parser
	executor *Executor
}

func New(parser Parser, executor *Executor) *Assistant {
	return &Assistant{parser: parser, executor: executor}
}

// Handle parses text and executes the resulting command
func (a *Assistant) Handle(ctx context.Context, text string) (models.ParsedCommand, CommandResult) {
	cmd := a.parser.Parse(text)
	a.executor.log.WithField("intent", cmd.Intent).Debugf("Parsed command with confidence %.2f", cmd.Confidence)
	return cmd, a.executor.Execute(ctx, cmd)
}

// Parse classifies text without executing it
func (a *Assistant) Parse(text string) models.ParsedCommand {
	return a.parser.Parse(text)
}

// Transactions returns the signed-in user's finance ledger
func (a *Assistant) Transactions(ctx context.Context) ([]models.Transaction, error) {
	return a.executor.Transactions(ctx)
}
