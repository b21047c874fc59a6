// Package ocr defines the boundary to the optical text recognition
// collaborator. The recognizer itself lives outside this service; the
// pipeline only consumes its extracted-text output as prompt context.
package ocr

import "context"

// Extractor pulls text out of an image. An empty string is a valid answer
// for images without readable text.
type Extractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Static is a fixed-output Extractor for tests and local runs without a
// recognition backend.
type Static struct {
	Text string
	Err  error
}

func (s Static) ExtractText(ctx context.Context, image []byte) (string, error) {
	return s.Text, s.Err
}
