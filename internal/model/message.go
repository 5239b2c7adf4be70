package model

// MessageStatus is the completion state of a Genie message as reported by
// the remote service.
type MessageStatus string

const (
	StatusPending    MessageStatus = "PENDING"
	StatusInProgress MessageStatus = "IN_PROGRESS"
	StatusCompleted  MessageStatus = "COMPLETED"
	StatusFailed     MessageStatus = "FAILED"
	StatusCancelled  MessageStatus = "CANCELLED"
	StatusExpired    MessageStatus = "EXPIRED"
)

// Terminal reports whether the status ends the message lifecycle. The live
// API emits intermediate states beyond PENDING/IN_PROGRESS (for example
// EXECUTING_QUERY); anything not listed here is treated as still running.
func (s MessageStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Message is one question-answer turn within a Genie conversation.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id,omitempty"`
	SpaceID        string        `json:"space_id,omitempty"`
	Status         MessageStatus `json:"status"`
	Attachments    []Attachment  `json:"attachments,omitempty"`
}

// Attachment is the structured payload associated with a completed message.
// Text carries the conversational answer; Query carries the generated SQL
// when the question produced a query.
type Attachment struct {
	AttachmentID string `json:"attachment_id"`
	Text         string `json:"text,omitempty"`
	Query        string `json:"query,omitempty"`
}

// Answer returns the first attachment, which holds the answer content.
// Genie responses carry at most one meaningful attachment.
func (m *Message) Answer() *Attachment {
	if len(m.Attachments) == 0 {
		return nil
	}
	return &m.Attachments[0]
}
