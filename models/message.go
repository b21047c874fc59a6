package models

import (
	"time"
)

// Modality is the kind of submitted content.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityVideo Modality = "video"
	ModalityURL   Modality = "url"
)

// Valid reports whether m is one of the supported modalities.
func (m Modality) Valid() bool {
	switch m {
	case ModalityText, ModalityImage, ModalityVideo, ModalityURL:
		return true
	}
	return false
}

// Submission is a content item arriving on the ingest queue.
// For image submissions Payload carries the image bytes; for video
// submissions it carries the single representative key-frame (JPEG).
type Submission struct {
	ID            string    `json:"id"`
	Modality      Modality  `json:"modality"`
	Content       string    `json:"content"`
	Payload       []byte    `json:"payload,omitempty"`
	MimeType      string    `json:"mime_type,omitempty"`
	ExtractedText string    `json:"extracted_text,omitempty"`
	SourceURL     string    `json:"source_url,omitempty"`
	Language      string    `json:"language,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// AnalyzedClaim pairs a submission with its analysis variants (the English
// original plus any translations), published for downstream consumers.
type AnalyzedClaim struct {
	ID         string            `json:"id"`
	Modality   Modality          `json:"modality"`
	Content    string            `json:"content,omitempty"`
	SourceURL  string            `json:"source_url,omitempty"`
	Source     string            `json:"source"`
	Results    []LocalizedResult `json:"results"`
	AnalyzedAt time.Time         `json:"analyzed_at"`
}

// LocalizedResult is one language variant of an analysis.
type LocalizedResult struct {
	Language string          `json:"language"`
	Result   *AnalysisResult `json:"result"`
}
