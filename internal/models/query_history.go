package models

// QueryHistory records one preview query run against a connection.
type QueryHistory struct {
	ID              int64     `json:"id"`
	ConnectionId    int64     `json:"connection_id"`
	QueryText       string    `json:"query_text"`
	ExecutedAt      EpochTime `json:"executed_at"`
	Success         bool      `json:"success"`
	ExecutionTimeMs int64     `json:"execution_time_ms"`
	Error           *string   `json:"error,omitempty"`
}

func (q *QueryHistory) Prepare() {
	if !q.ExecutedAt.Valid {
		q.ExecutedAt = Now()
	}
}
