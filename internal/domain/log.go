package domain

// LogEntry 审计日志，只追加，不改不删
type LogEntry struct {
	Timestamp string `json:"timestamp"` // RFC3339
	User      string `json:"user"`      // "email (role)" 或 "Unknown"
	Action    string `json:"action"`
}
