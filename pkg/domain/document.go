package domain

import "time"

// DocumentStatus is the validity state of a stored document.
type DocumentStatus string

const StatusValid DocumentStatus = "valid"

// Document is the artifact appended to the user's library when a form completes.
type Document struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Category string         `json:"category"`
	Status   DocumentStatus `json:"status"`
	// FormRef is the id of the form that produced the document.
	FormRef string            `json:"form_ref"`
	Data    map[string]string `json:"data"`
	// Content is the human-readable transcript.
	Content string `json:"content"`
	// SessionID is the dedup key: stores hold at most one document per session.
	SessionID      string    `json:"session_id"`
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// DocumentID derives the document id from the session that produced it.
func DocumentID(sessionID string) string {
	return "form-" + sessionID
}
