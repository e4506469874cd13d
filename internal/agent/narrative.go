package agent

import (
	"fmt"
	"strings"

	"kousu/internal/core"
)

// systemPrompt instructs the model to answer as a work-hour analyst and to
// format replies for readability. Kept in Japanese because the whole report
// and the UI are Japanese.
const systemPrompt = `あなたは工数管理の専門家です。以下の工数データを基に、ユーザーの質問に答えてください。

回答の際は、以下の点に注意してください：
1. 見やすさのため、適切に改行を入れてください
2. 箇条書きや段落分けを活用してください
3. 数値データを提示する際は表形式や箇条書きにしてください
4. 重要なポイントは太字(**テキスト**)や見出しで強調してください`

// PeriodLabel renders the filter window in Japanese. A month filter without
// a year is meaningless and falls back to the all-time label.
func PeriodLabel(year, month *int) string {
	switch {
	case year != nil && month != nil:
		return fmt.Sprintf("%d年%d月", *year, *month)
	case year != nil:
		return fmt.Sprintf("%d年", *year)
	default:
		return "全期間"
	}
}

// BuildContext renders the aggregated hour data and the user's question into
// the single user message fed to the model. The layout is deterministic so
// the same data always produces the same report.
func BuildContext(summary core.Summary, year, month *int, message string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n【対象期間】: %s\n\n", PeriodLabel(year, month))
	b.WriteString("【工数サマリー】:\n")
	fmt.Fprintf(&b, "- 見積工数合計: %.1f時間\n", summary.TotalEstimated)
	fmt.Fprintf(&b, "- 予定工数合計: %.1f時間\n", summary.TotalPlanned)
	fmt.Fprintf(&b, "- 実績工数合計: %.1f時間\n", summary.TotalActual)
	fmt.Fprintf(&b, "- 案件・レコード数: %d件\n\n", summary.RecordCount)
	b.WriteString("【詳細データ】:\n")

	for _, r := range summary.Records {
		fmt.Fprintf(&b, "\n案件: %s", r.ProjectName)
		if r.Client != "" {
			fmt.Fprintf(&b, " (クライアント: %s)", r.Client)
		}
		fmt.Fprintf(&b, "\n  期間: %d年%d月", r.Year, r.Month)

		if r.MemberName != nil && *r.MemberName != "" {
			fmt.Fprintf(&b, "\n  担当者: %s", *r.MemberName)
		} else {
			b.WriteString("\n  担当者: 未割当（案件全体）")
		}

		fmt.Fprintf(&b, "\n  見積工数: %.1fh", r.EstimatedHours)
		fmt.Fprintf(&b, "\n  予定工数: %.1fh", r.PlannedHours)
		fmt.Fprintf(&b, "\n  実績工数: %.1fh", r.ActualHours)
		fmt.Fprintf(&b, "\n  見積差分: %+.1fh", r.ActualHours-r.EstimatedHours)
		fmt.Fprintf(&b, "\n  予定差分: %+.1fh", r.ActualHours-r.PlannedHours)

		if r.Notes != "" {
			fmt.Fprintf(&b, "\n  備考: %s", r.Notes)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n【ユーザーの質問】: %s", message)

	return b.String()
}
