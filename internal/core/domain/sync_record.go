package domain

import "time"

// SyncRecord is one line of the sync audit log: what an event did to one
// connected book. The response contract still returns lines to the event
// source; records exist so operators can inspect past runs.
type SyncRecord struct {
	SyncID          string    `json:"syncID"`
	BookID          string    `json:"bookID"`
	ConnectedBookID string    `json:"connectedBookID"`
	EventKind       EventKind `json:"eventKind"`
	RemoteID        string    `json:"remoteID"`
	Result          string    `json:"result"`
	CreatedAt       time.Time `json:"createdAt"`
}
