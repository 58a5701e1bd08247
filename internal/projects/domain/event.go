package domain

import "time"

type EventType string

const (
	EventFileSaved      EventType = "file.saved"
	EventFileCreated    EventType = "file.created"
	EventFileRenamed    EventType = "file.renamed"
	EventFileDeleted    EventType = "file.deleted"
	EventProjectUpdated EventType = "project.updated"
	EventProjectDeleted EventType = "project.deleted"
)

// ProjectEvent announces a mutation to live subscribers such as the preview
// frame. FileID is empty for project-level events.
type ProjectEvent struct {
	Type      EventType `json:"type"`
	ProjectID string    `json:"project_id"`
	FileID    string    `json:"file_id,omitempty"`
	At        time.Time `json:"at"`
}
