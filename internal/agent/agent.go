// Package agent relays user questions about recorded work hours to an Azure
// OpenAI deployment, grounding each question in a generated data report.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"kousu/internal/core"
)

// Fixed user-facing messages, returned verbatim to the chat UI.
const (
	msgNotConfigured = "エージェント機能を使用するには、.envファイルにAzure OpenAIの設定を行ってください。"
	msgEmptyResponse = "応答が空でした。もう一度お試しください。"
)

// ChatCompleter produces a completion for a system/user message pair.
type ChatCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// SummaryReader supplies the aggregated hour data the agent grounds answers on.
type SummaryReader interface {
	SummaryByPeriod(ctx context.Context, year, month *int) (core.Summary, error)
}

// Agent answers questions about recorded hours via a chat completion model.
// A nil completer puts the agent in disabled mode, where every question gets
// the fixed configuration hint instead of a model call.
type Agent struct {
	summaries SummaryReader
	completer ChatCompleter
}

func New(summaries SummaryReader, completer ChatCompleter) *Agent {
	return &Agent{
		summaries: summaries,
		completer: completer,
	}
}

// Enabled reports whether a completion backend is configured.
func (a *Agent) Enabled() bool {
	return a.completer != nil
}

// Chat answers a question scoped to the given period. Completion failures
// are folded into a user-facing message rather than an error; only a failure
// to read the underlying data is returned as an error.
func (a *Agent) Chat(ctx context.Context, message string, year, month *int) (string, error) {
	if !a.Enabled() {
		return msgNotConfigured, nil
	}

	summary, err := a.summaries.SummaryByPeriod(ctx, year, month)
	if err != nil {
		return "", fmt.Errorf("load hour summary: %w", err)
	}

	content := BuildContext(summary, year, month, message)

	result, err := a.completer.Complete(ctx, systemPrompt, content)
	if err != nil {
		slog.ErrorContext(ctx, "Chat completion failed",
			"period", PeriodLabel(year, month), "error", err)
		return fmt.Sprintf("エラーが発生しました: %v", err), nil
	}

	if strings.TrimSpace(result) == "" {
		slog.WarnContext(ctx, "Empty chat completion",
			"period", PeriodLabel(year, month))
		return msgEmptyResponse, nil
	}

	return result, nil
}
