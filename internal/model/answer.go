package model

import (
	"fmt"
	"strings"
)

// Answer is the structured success payload returned for an ask or follow-up.
// ConversationID and MessageID let the caller continue the conversation or
// re-check status later.
type Answer struct {
	ConversationID string       `json:"conversation_id"`
	MessageID      string       `json:"message_id"`
	SpaceID        string       `json:"space_id"`
	Text           string       `json:"text,omitempty"`
	Result         *QueryResult `json:"query_result,omitempty"`
}

// Markdown renders the answer for the agent: answer text, generated SQL in a
// fenced block, the result table, and the conversation ID for follow-ups.
func (a *Answer) Markdown() string {
	var b strings.Builder

	if a.Text != "" {
		b.WriteString(a.Text)
		b.WriteString("\n\n")
	}

	if a.Result != nil {
		if a.Result.SQLText != "" {
			b.WriteString("SQL:\n```sql\n")
			b.WriteString(a.Result.SQLText)
			b.WriteString("\n```\n\n")
		}
		if len(a.Result.Columns) > 0 {
			b.WriteString(a.Result.markdownTable())
			b.WriteString("\n")
		}
	}

	if a.Text == "" && a.Result == nil {
		b.WriteString("Query completed but returned no answer content.\n\n")
	}

	fmt.Fprintf(&b, "conversation_id: `%s`\n", a.ConversationID)
	return b.String()
}

func (r *QueryResult) markdownTable() string {
	var b strings.Builder

	for i, col := range r.Columns {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(col.Name)
	}
	b.WriteString("\n")
	for i := range r.Columns {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString("\n")

	for _, row := range r.Rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(cellString(cell))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func cellString(v any) string {
	if v == nil {
		return "NULL"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
