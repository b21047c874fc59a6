package parser

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"claim-analyze-pipeline/models"
)

// ErrNoContent is returned when there is no raw text to extract from.
// Any non-empty input always yields a well-typed result: the strict JSON
// path when possible, the heuristic path otherwise.
var ErrNoContent = errors.New("no content to analyze")

const maxExplanationPrefix = 500

// fallbackExplanation replaces the explanation when structured parsing
// fails and the raw text itself is unusable.
const fallbackExplanation = "The analysis service returned a response that could not be fully interpreted. Treat this result as low-confidence."

// genericRecommendations are the verification tips attached to every
// heuristic result.
var genericRecommendations = []string{
	"Cross-check this claim with established fact-checking organizations.",
	"Look for the original source of the claim before sharing.",
	"Check whether reputable news outlets report the same information.",
	"Be cautious with content designed to provoke a strong emotional reaction.",
}

// misinfoMarkers are lexical cues that the model judged the content
// misleading. Matched case-insensitively anywhere in the raw text.
var misinfoMarkers = []string{
	"misinformation",
	"disinformation",
	"false",
	"inaccurate",
	"misleading",
	"fabricated",
	"fake",
}

var (
	percentRe = regexp.MustCompile(`(\d{1,3})\s*%`)
	scoreRe   = regexp.MustCompile(`(?i)score\D{0,20}?(\d{1,3})`)
)

// ExtractJSON strips markdown code fences and returns the substring between
// the first '{' and the last '}', or "" when no JSON object can be located.
func ExtractJSON(raw string) string {
	cleaned := strings.TrimSpace(raw)

	// Models often wrap structured output in ``` or ```json fences.
	if start := strings.Index(cleaned, "```"); start != -1 {
		rest := cleaned[start+3:]
		if end := strings.Index(rest, "```"); end != -1 {
			cleaned = rest[:end]
			// Drop a leading language identifier line ("json").
			if nl := strings.IndexByte(cleaned, '\n'); nl != -1 && strings.EqualFold(strings.TrimSpace(cleaned[:nl]), "json") {
				cleaned = cleaned[nl+1:]
			}
		}
	}

	first := strings.IndexByte(cleaned, '{')
	last := strings.LastIndexByte(cleaned, '}')
	if first == -1 || last == -1 || first >= last {
		return ""
	}
	return strings.TrimSpace(cleaned[first : last+1])
}

// Parse turns the model's raw response text into an AnalysisResult.
// It attempts a strict JSON decode first and falls back to heuristic
// extraction when that fails; strict reports which path produced the
// result. Pure and idempotent: the same raw text always yields the same
// result.
func Parse(raw string) (result *models.AnalysisResult, strict bool, err error) {
	if strings.TrimSpace(raw) == "" {
		return nil, false, ErrNoContent
	}

	if jsonText := ExtractJSON(raw); jsonText != "" {
		if result, ok := parseStrict(jsonText); ok {
			return result, true, nil
		}
	}

	return parseHeuristic(raw), false, nil
}

// parseStrict decodes the candidate JSON object. A type mismatch on any
// field fails the whole decode; a partial result would mislead the caller
// about data completeness.
func parseStrict(jsonText string) (*models.AnalysisResult, bool) {
	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		return nil, false
	}

	result.CredibilityScore = models.ClampScore(result.CredibilityScore)
	// A model-supplied level is validated against the score thresholds;
	// an inconsistent or missing level is re-derived.
	result.CredibilityLevel = models.LevelForScore(result.CredibilityScore)
	if result.Explanation == "" {
		result.Explanation = fallbackExplanation
	}
	return &result, true
}

// parseHeuristic infers a degraded but well-typed result from lexical cues
// in the raw text.
func parseHeuristic(raw string) *models.AnalysisResult {
	lower := strings.ToLower(raw)

	isMisinformation := false
	for _, marker := range misinfoMarkers {
		if strings.Contains(lower, marker) {
			isMisinformation = true
			break
		}
	}

	score := heuristicScore(raw, isMisinformation)
	level := models.LevelForScore(score)

	explanation := strings.TrimSpace(raw)
	if len(explanation) > maxExplanationPrefix {
		// Back up to a rune boundary so the cut never splits a multibyte
		// character.
		cut := maxExplanationPrefix
		for cut > 0 && !utf8.RuneStart(explanation[cut]) {
			cut--
		}
		explanation = explanation[:cut]
	}
	if explanation == "" {
		explanation = fallbackExplanation
	}

	result := &models.AnalysisResult{
		IsMisinformation: isMisinformation,
		CredibilityScore: score,
		CredibilityLevel: level,
		Explanation:      explanation,
		Evidence: []models.Evidence{
			{
				Type:        models.EvidenceUnverified,
				Description: "Automated assessment derived from the model's unstructured response.",
				Confidence:  score,
			},
		},
		Sources: []models.Source{
			{
				Type:        models.SourceAIAnalysis,
				Title:       "AI model assessment",
				Reliability: models.ReliabilityMedium,
			},
		},
		Recommendations: append([]string(nil), genericRecommendations...),
		RedFlags:        []string{},
		FurtherReading:  []models.FurtherReading{},
	}

	if isMisinformation {
		result.RedFlags = []string{"The analysis indicates this content may contain misinformation."}
	}

	return result
}

// heuristicScore finds the first number adjacent to a percent sign or the
// word "score". Without either cue it falls back to a neutral midpoint,
// skewed low when misinformation markers were found.
func heuristicScore(raw string, isMisinformation bool) int {
	if m := percentRe.FindStringSubmatch(raw); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return models.ClampScore(n)
		}
	}
	if m := scoreRe.FindStringSubmatch(raw); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return models.ClampScore(n)
		}
	}
	if isMisinformation {
		return 25
	}
	return 50
}
