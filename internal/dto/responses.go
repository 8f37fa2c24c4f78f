package dto

import (
	"time"

	"github.com/ledgerlink/exchange-bot/internal/core/domain"
)

// DispatchResponse carries the per-connected-book response lines back to the
// event source, plus any per-book failures that did not stop the others.
type DispatchResponse struct {
	Results []string `json:"results"`
	Errors  []string `json:"errors,omitempty"`
}

// GainLossRequest triggers a reconciliation run as of a date.
type GainLossRequest struct {
	Date string `json:"date" binding:"required"`
}

// SyncRecordResponse is one sync audit record as returned by the activity
// endpoint.
type SyncRecordResponse struct {
	SyncID          string    `json:"syncID"`
	BookID          string    `json:"bookID"`
	ConnectedBookID string    `json:"connectedBookID"`
	EventKind       string    `json:"eventKind"`
	RemoteID        string    `json:"remoteID,omitempty"`
	Result          string    `json:"result"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ToSyncRecordResponses converts domain records for the activity endpoint.
func ToSyncRecordResponses(records []domain.SyncRecord) []SyncRecordResponse {
	responses := make([]SyncRecordResponse, len(records))
	for i, record := range records {
		responses[i] = SyncRecordResponse{
			SyncID:          record.SyncID,
			BookID:          record.BookID,
			ConnectedBookID: record.ConnectedBookID,
			EventKind:       string(record.EventKind),
			RemoteID:        record.RemoteID,
			Result:          record.Result,
			CreatedAt:       record.CreatedAt,
		}
	}
	return responses
}
