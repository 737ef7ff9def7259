package broker

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatCodeExecResult produces the "[code_exec]" tool-result block: the
// header line, "exit_code: <n>", then stdout and stderr each inside a
// ```text fence. It takes only the process output, so the block carries
// no language/code lines and no stop_reason line. Grounded on the
// teacher's internal/tui/chat/render.go tool-call rendering idiom.
func FormatCodeExecResult(stdout, stderr string, exitCode int) string {
	var b strings.Builder
	b.WriteString("[code_exec]\n")
	fmt.Fprintf(&b, "exit_code: %d\n", exitCode)
	for _, s := range []struct{ name, text string }{{"stdout", stdout}, {"stderr", stderr}} {
		b.WriteString(s.name + ":\n```text\n")
		b.WriteString(s.text)
		if s.text != "" && !strings.HasSuffix(s.text, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```\n")
	}
	return b.String()
}

type questionReviewResult struct {
	Approved []questionItem `json:"approved"`
	Rejected []questionItem `json:"rejected"`
}

type questionItem struct {
	Index    int    `json:"index"`
	Question string `json:"question"`
}

// FormatQuestionReviewResult encodes the final decision set as JSON, the
// format a follow-up tool-result message carries.
func FormatQuestionReviewResult(pending *PendingQuestionReview, approvedIdx []int) string {
	approvedSet := make(map[int]bool, len(approvedIdx))
	for _, i := range approvedIdx {
		approvedSet[i] = true
	}
	var result questionReviewResult
	for i, q := range pending.Questions {
		item := questionItem{Index: i, Question: q}
		if approvedSet[i] {
			result.Approved = append(result.Approved, item)
		} else {
			result.Rejected = append(result.Rejected, item)
		}
	}
	data, err := json.Marshal(result)
	if err != nil {
		return "{}"
	}
	return string(data)
}
