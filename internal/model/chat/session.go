package chat

// Snapshot captures the observable state of a chat session at one point in time.
type Snapshot struct {
	Messages  []Message `json:"messages"`
	IsLoading bool      `json:"isLoading"`
	SessionID string    `json:"sessionId,omitempty"`
}

// HasSession reports whether the answer service has assigned a session id yet.
func (s Snapshot) HasSession() bool {
	return s.SessionID != ""
}
