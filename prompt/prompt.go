package prompt

import (
	"fmt"
	"strings"

	"claim-analyze-pipeline/models"
)

// schemaSuffix declares the exact response schema. Every modality builder
// appends the same suffix so the extractor sees stable field names no matter
// which kind of content was analyzed.
const schemaSuffix = `
Respond with a single JSON object using exactly this schema:
{
  "isMisinformation": <true | false>,
  "credibilityScore": <integer 0-100>,
  "credibilityLevel": "<High | Medium | Low | VeryLow>",
  "explanation": "<clear explanation of the verdict>",
  "evidence": [
    {"type": "<factual | suspicious | contradictory | unverified | visual_manipulation>", "description": "<finding>", "confidence": <integer 0-100>}
  ],
  "sources": [
    {"type": "<news_article | academic_paper | government_report | expert_opinion | fact_check | ai_analysis>", "title": "<source title>", "url": "<url or omit>", "reliability": "<high | medium | low>"}
  ],
  "recommendations": ["<verification tip>"],
  "redFlags": ["<warning sign, empty list if none>"],
  "furtherReading": [
    {"title": "<title>", "url": "<url>", "description": "<why it helps>"}
  ]
}

Output ONLY the JSON object. No markdown, no surrounding prose.`

// Request carries the already-validated inputs for prompt construction.
type Request struct {
	Modality      models.Modality
	Content       string
	ExtractedText string
	SourceURL     string
}

// Build returns the full instruction string for the given request.
// Pure string construction; no side effects and no failure modes.
func Build(req Request) string {
	switch req.Modality {
	case models.ModalityImage:
		return buildImage(req.Content, req.ExtractedText)
	case models.ModalityVideo:
		return buildVideo(req.Content)
	case models.ModalityURL:
		return buildURL(req.Content)
	default:
		return buildText(req.Content, req.SourceURL)
	}
}

func buildText(content, sourceURL string) string {
	var b strings.Builder
	b.WriteString("You are an expert fact-checker. Analyze the following content for misinformation and assess its credibility.\n\n")
	fmt.Fprintf(&b, "CONTENT TO ANALYZE:\n%q\n", content)
	if sourceURL != "" {
		fmt.Fprintf(&b, "\nThe content was found at: %s\n", sourceURL)
	}
	b.WriteString(schemaSuffix)
	return b.String()
}

func buildImage(description, extractedText string) string {
	var b strings.Builder
	b.WriteString("You are an expert fact-checker with vision capabilities. Analyze the attached image for misinformation, manipulation, or misleading context.\n\n")
	b.WriteString("Check for signs of digital manipulation, staged scenes, miscaptioned events, and fabricated documents.\n")
	if description != "" {
		fmt.Fprintf(&b, "\nUSER CONTEXT:\n%q\n", description)
	}
	if extractedText != "" {
		fmt.Fprintf(&b, "\nTEXT EXTRACTED FROM THE IMAGE (OCR):\n%q\nAssess the factual accuracy of this text as part of the verdict.\n", extractedText)
	}
	b.WriteString(schemaSuffix)
	return b.String()
}

func buildVideo(description string) string {
	var b strings.Builder
	b.WriteString("You are an expert fact-checker with vision capabilities. The attached image is a representative key-frame from a video. Analyze it for misinformation, deepfake artifacts, or misleading framing.\n\n")
	b.WriteString("Judge only what the key-frame supports; note in the explanation that a single frame was analyzed.\n")
	if description != "" {
		fmt.Fprintf(&b, "\nUSER CONTEXT:\n%q\n", description)
	}
	b.WriteString(schemaSuffix)
	return b.String()
}

func buildURL(url string) string {
	var b strings.Builder
	b.WriteString("You are an expert fact-checker. Assess the credibility of the content published at the following URL, considering the reputation of the domain and any claims you can attribute to it.\n\n")
	fmt.Fprintf(&b, "URL TO ANALYZE: %s\n", url)
	b.WriteString(schemaSuffix)
	return b.String()
}
