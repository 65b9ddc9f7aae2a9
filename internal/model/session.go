package model

// SessionState is the per-chat record persisted in the state file.
type SessionState struct {
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
	Normalize bool   `json:"normalize"`
}

// HasRange reports whether both ends of the date range are set.
func (s SessionState) HasRange() bool {
	return s.Start != "" && s.End != ""
}
