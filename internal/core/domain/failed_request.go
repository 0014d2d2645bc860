package domain

import "time"

// FailedRequest records a request that ended in a terminal Kafka error
type FailedRequest struct {
	ID         string    `json:"id"`
	Broker     string    `json:"broker"`
	ClientID   string    `json:"client_id"`
	APIKey     int16     `json:"api_key"`
	APIVersion int16     `json:"api_version"`
	ErrorCode  int16     `json:"error_code"`
	ErrorName  string    `json:"error_name"`
	Retriable  bool      `json:"retriable"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error_msg"`
	FailedAt   time.Time `json:"failed_at"`
}
