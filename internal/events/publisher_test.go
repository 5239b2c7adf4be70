package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline-ai/genie-bridge/internal/genie"
	"github.com/fieldline-ai/genie-bridge/internal/model"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "genie.sales_space.completed", Subject("sales_space", EventCompleted))
	assert.Equal(t, "genie.sales_space.timeout", Subject("sales_space", EventTimeout))
}

func TestCompletedEvent(t *testing.T) {
	ans := &model.Answer{
		ConversationID: "conv-1",
		MessageID:      "msg-1",
		SpaceID:        "sales_space",
		Text:           "answer",
		Result: &model.QueryResult{
			Rows: [][]any{{"a"}, {"b"}},
		},
	}

	ev := completedEvent(ans)
	require.NotEmpty(t, ev.ID)
	assert.Equal(t, EventCompleted, ev.Type)
	assert.Equal(t, "sales_space", ev.SpaceID)
	assert.Equal(t, "conv-1", ev.ConversationID)
	assert.Equal(t, "msg-1", ev.MessageID)
	assert.Equal(t, 2, ev.RowCount)
	assert.False(t, ev.CreatedAt.IsZero())
}

func TestCompletedEventNoResult(t *testing.T) {
	ev := completedEvent(&model.Answer{SpaceID: "sales_space"})
	assert.Zero(t, ev.RowCount)
}

func TestFailedEventCarriesErrorKind(t *testing.T) {
	cause := &genie.Error{Kind: genie.KindQueryFailed, Message: "remote status FAILED", Status: "FAILED"}

	ev := failedEvent("sales_space", "conv-1", "msg-1", cause)
	assert.Equal(t, EventFailed, ev.Type)
	assert.Equal(t, "query_failed", ev.ErrorKind)
	assert.Contains(t, ev.Reason, "FAILED")
}

func TestFailedEventTimeoutType(t *testing.T) {
	cause := &genie.Error{Kind: genie.KindTimeout, Message: "no terminal status", ConversationID: "conv-1"}

	ev := failedEvent("sales_space", "conv-1", "msg-1", cause)
	assert.Equal(t, EventTimeout, ev.Type)
	assert.Equal(t, "timeout", ev.ErrorKind)
}

func TestFailedEventPlainError(t *testing.T) {
	ev := failedEvent("sales_space", "", "", errors.New("boom"))
	assert.Equal(t, EventFailed, ev.Type)
	assert.Empty(t, ev.ErrorKind)
	assert.Equal(t, "boom", ev.Reason)
}
