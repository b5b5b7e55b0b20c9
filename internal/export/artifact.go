package export

import "time"

// Status reports the outcome of an export call.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusValidationFailed Status = "validation-failed"
	StatusPartial          Status = "partial"
)

// Artifact is a rendered template plus its metadata, created once per export
// call and immutable thereafter. Content is deterministic for identical
// inputs; GeneratedAt is the only per-call value and never appears inside
// Content.
type Artifact struct {
	Name        string    `json:"name"`
	DocType     string    `json:"doc_type"`
	Format      string    `json:"format"`
	Version     string    `json:"version"`
	Author      string    `json:"author,omitempty"`
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generated_at"`
	Status      Status    `json:"status"`
	Errors      []string  `json:"errors"`
	Warnings    []string  `json:"warnings"`
}
