package models

// CredibilityLevel is the qualitative bucket derived from the numeric score.
type CredibilityLevel string

const (
	LevelHigh    CredibilityLevel = "High"
	LevelMedium  CredibilityLevel = "Medium"
	LevelLow     CredibilityLevel = "Low"
	LevelVeryLow CredibilityLevel = "VeryLow"
)

// Evidence entry types.
const (
	EvidenceFactual            = "factual"
	EvidenceSuspicious         = "suspicious"
	EvidenceContradictory      = "contradictory"
	EvidenceUnverified         = "unverified"
	EvidenceVisualManipulation = "visual_manipulation"
)

// Source types and reliability buckets.
const (
	SourceNewsArticle      = "news_article"
	SourceAcademicPaper    = "academic_paper"
	SourceGovernmentReport = "government_report"
	SourceExpertOpinion    = "expert_opinion"
	SourceFactCheck        = "fact_check"
	SourceAIAnalysis       = "ai_analysis"

	ReliabilityHigh   = "high"
	ReliabilityMedium = "medium"
	ReliabilityLow    = "low"
)

// Evidence is a single supporting or contradicting finding.
type Evidence struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Confidence  int    `json:"confidence"`
}

// Source is a citation backing the verdict.
type Source struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	Reliability string `json:"reliability"`
}

// FurtherReading is a suggested follow-up link.
type FurtherReading struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// AnalysisResult is the canonical credibility verdict produced by the
// extractor. It is constructed once per analysis and never mutated;
// translation yields an independent copy.
type AnalysisResult struct {
	IsMisinformation bool             `json:"isMisinformation"`
	CredibilityScore int              `json:"credibilityScore"`
	CredibilityLevel CredibilityLevel `json:"credibilityLevel"`
	Explanation      string           `json:"explanation"`
	Evidence         []Evidence       `json:"evidence"`
	Sources          []Source         `json:"sources"`
	Recommendations  []string         `json:"recommendations"`
	RedFlags         []string         `json:"redFlags"`
	FurtherReading   []FurtherReading `json:"furtherReading"`
	ExtractedText    string           `json:"extractedText,omitempty"`
}

// ClampScore forces a raw score into the valid [0,100] range.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// LevelForScore maps a credibility score onto its qualitative level.
// Thresholds: >=80 High, >=60 Medium, >=40 Low, else VeryLow.
func LevelForScore(score int) CredibilityLevel {
	score = ClampScore(score)
	switch {
	case score >= 80:
		return LevelHigh
	case score >= 60:
		return LevelMedium
	case score >= 40:
		return LevelLow
	default:
		return LevelVeryLow
	}
}

func validLevel(level CredibilityLevel) bool {
	switch level {
	case LevelHigh, LevelMedium, LevelLow, LevelVeryLow:
		return true
	}
	return false
}

// Normalize enforces the construction invariants: the score is clamped,
// a missing or invalid level is re-derived from the score, and a blank
// explanation is replaced with a diagnostic placeholder.
func (r *AnalysisResult) Normalize() {
	r.CredibilityScore = ClampScore(r.CredibilityScore)
	if !validLevel(r.CredibilityLevel) {
		r.CredibilityLevel = LevelForScore(r.CredibilityScore)
	}
	if r.Explanation == "" {
		r.Explanation = "Analysis completed, but no explanation was provided by the model."
	}
}

// Clone returns a deep copy. Translated variants are built on copies so the
// original can still be shown on demand.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Evidence = append([]Evidence(nil), r.Evidence...)
	out.Sources = append([]Source(nil), r.Sources...)
	out.Recommendations = append([]string(nil), r.Recommendations...)
	out.RedFlags = append([]string(nil), r.RedFlags...)
	out.FurtherReading = append([]FurtherReading(nil), r.FurtherReading...)
	return &out
}
