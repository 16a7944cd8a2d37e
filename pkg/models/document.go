package models

import "time"

// DocumentStatus is the lifecycle state of a Document (spec §3, §4.D).
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document is one source file belonging to a Workspace.
type Document struct {
	ID             string
	WorkspaceID    string
	SourceBytesRef string
	ContentType    string
	Status         DocumentStatus
	ErrorMessage   string
	TotalChunks    int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanRedrive reports whether ingestion may be (re)triggered for this
// document's current status (spec §4.D: pending or failed only).
func (d Document) CanRedrive() bool {
	return d.Status == DocumentStatusPending || d.Status == DocumentStatusFailed
}
