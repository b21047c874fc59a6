package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"

	"claim-analyze-pipeline/claims"
	"claim-analyze-pipeline/config"
	"claim-analyze-pipeline/database"
	"claim-analyze-pipeline/llm"
	"claim-analyze-pipeline/metrics"
	"claim-analyze-pipeline/models"
	"claim-analyze-pipeline/ocr"
	"claim-analyze-pipeline/parser"
	"claim-analyze-pipeline/prompt"
	"claim-analyze-pipeline/rabbitmq"
	"claim-analyze-pipeline/translator"
)

// ErrNoContent is returned when a submission carries nothing to analyze.
var ErrNoContent = errors.New("no content to analyze")

// ErrBadModality is returned for submissions with an unsupported modality.
var ErrBadModality = errors.New("unsupported modality")

// Publisher is the egress side of the pipeline. *rabbitmq.Publisher satisfies it.
type Publisher interface {
	PublishJSON(routingKey string, v any) error
}

// Analyzer runs submissions through the full credibility pipeline:
// prompt construction, model invocation, result extraction, translation
// and persistence.
type Analyzer struct {
	cfg        *config.Config
	llm        llm.Client
	translator *translator.Translator
	claims     *claims.Client
	ocr        ocr.Extractor
	db         *database.Database
	publisher  Publisher
}

// New creates an Analyzer. The claims client, OCR extractor, database and
// publisher are all optional; the corresponding step is skipped when nil.
func New(cfg *config.Config, llmClient llm.Client, tr *translator.Translator, claimsClient *claims.Client, extractor ocr.Extractor, db *database.Database, publisher Publisher) *Analyzer {
	return &Analyzer{
		cfg:        cfg,
		llm:        llmClient,
		translator: tr,
		claims:     claimsClient,
		ocr:        extractor,
		db:         db,
		publisher:  publisher,
	}
}

// Analysis is the outcome of analyzing one submission.
type Analysis struct {
	Result      *models.AnalysisResult
	RawResponse string
	Source      string
}

// Analyze runs a single submission through the model and extracts a
// structured result. URL submissions are delegated to the backend claim
// API when one is configured.
func (a *Analyzer) Analyze(ctx context.Context, sub *models.Submission) (*Analysis, error) {
	if !sub.Modality.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrBadModality, sub.Modality)
	}
	if sub.Content == "" && len(sub.Payload) == 0 && sub.SourceURL == "" {
		return nil, ErrNoContent
	}

	if sub.Modality == models.ModalityURL && a.cfg.UseClaimBackend && a.claims != nil {
		return a.analyzeViaBackend(ctx, sub)
	}

	extractedText := sub.ExtractedText
	if sub.Modality == models.ModalityImage && extractedText == "" && a.ocr != nil && len(sub.Payload) > 0 {
		text, err := a.ocr.ExtractText(ctx, sub.Payload)
		if err != nil {
			log.WithError(err).WithField("id", sub.ID).Warn("OCR extraction failed, analyzing without it")
		} else {
			extractedText = text
		}
	}

	promptText := prompt.Build(prompt.Request{
		Modality:      sub.Modality,
		Content:       sub.Content,
		ExtractedText: extractedText,
		SourceURL:     sub.SourceURL,
	})

	started := time.Now()
	response, err := a.llm.Invoke(ctx, promptText, sub.Payload, sub.MimeType)
	metrics.ModelRequestDuration.WithLabelValues(a.llm.SourceName()).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues(string(sub.Modality), "error").Inc()
		return nil, err
	}

	result, strict, err := parser.Parse(response)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues(string(sub.Modality), "error").Inc()
		return nil, err
	}
	if result.ExtractedText == "" && extractedText != "" {
		result.ExtractedText = extractedText
	}

	outcome := "heuristic"
	if strict {
		outcome = "structured"
	}
	metrics.AnalysesTotal.WithLabelValues(string(sub.Modality), outcome).Inc()
	return &Analysis{
		Result:      result,
		RawResponse: response,
		Source:      a.llm.SourceName(),
	}, nil
}

func (a *Analyzer) analyzeViaBackend(ctx context.Context, sub *models.Submission) (*Analysis, error) {
	result, err := a.claims.Process(ctx, models.ClaimSubmission{
		Text:      sub.Content,
		SourceURL: sub.SourceURL,
		Language:  sub.Language,
	})
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues(string(sub.Modality), "error").Inc()
		return nil, err
	}
	metrics.AnalysesTotal.WithLabelValues(string(sub.Modality), "structured").Inc()
	return &Analysis{
		Result: result,
		Source: "ClaimBackend",
	}, nil
}

// Translate produces a language variant of result, preserving its shape.
func (a *Analyzer) Translate(ctx context.Context, result *models.AnalysisResult, languageName string) (*models.AnalysisResult, error) {
	translated, err := a.translator.TranslateResult(ctx, result, languageName)
	if err != nil {
		metrics.TranslationsTotal.WithLabelValues(languageName, "error").Inc()
		return nil, err
	}
	metrics.TranslationsTotal.WithLabelValues(languageName, "success").Inc()
	return translated, nil
}

// HandleSubmission is the RabbitMQ callback for the submission queue.
func (a *Analyzer) HandleSubmission(msg *rabbitmq.Message) error {
	var sub models.Submission
	if err := msg.UnmarshalTo(&sub); err != nil {
		return rabbitmq.Permanent(fmt.Errorf("failed to unmarshal submission: %w", err))
	}

	ctx := context.Background()
	ctxLog := log.WithFields(log.Fields{
		"id":       sub.ID,
		"modality": string(sub.Modality),
	})
	ctxLog.Info("analyzing submission")

	analysis, err := a.Analyze(ctx, &sub)
	if err != nil {
		switch {
		case errors.Is(err, ErrBadModality), errors.Is(err, ErrNoContent),
			errors.Is(err, llm.ErrRefused), errors.Is(err, parser.ErrNoContent):
			ctxLog.WithError(err).Error("submission cannot be analyzed")
			return rabbitmq.Permanent(err)
		default:
			// Unavailable model, backend timeouts and the rest are worth a retry.
			ctxLog.WithError(err).Warn("analysis failed, will retry")
			return err
		}
	}

	variants := []models.LocalizedResult{{Language: "en", Result: analysis.Result}}
	a.saveVariant(&sub, analysis, "en", analysis.Result, ctxLog)

	var transWg sync.WaitGroup
	var variantsMutex sync.Mutex
	for code, fullName := range a.cfg.TranslationLanguages {
		if code == "en" || fullName == "English" {
			continue // already have the English original
		}

		transWg.Add(1)
		langCode := code
		langName := fullName
		go func() {
			defer transWg.Done()
			translated, err := a.Translate(ctx, analysis.Result, langName)
			if err != nil {
				ctxLog.WithError(err).WithField("language", langName).Error("translation failed")
				return
			}
			a.saveVariant(&sub, analysis, langCode, translated, ctxLog)
			variantsMutex.Lock()
			variants = append(variants, models.LocalizedResult{Language: langCode, Result: translated})
			variantsMutex.Unlock()
		}()
	}
	transWg.Wait()

	a.publish(&sub, analysis, variants, ctxLog)
	return nil
}

func (a *Analyzer) saveVariant(sub *models.Submission, analysis *Analysis, langCode string, result *models.AnalysisResult, ctxLog *log.Entry) {
	if a.db == nil {
		return
	}
	record := &database.ClaimAnalysis{
		ID:               sub.ID,
		Modality:         string(sub.Modality),
		Content:          sub.Content,
		SourceURL:        sub.SourceURL,
		Source:           analysis.Source,
		Language:         langCode,
		RawResponse:      analysis.RawResponse,
		IsMisinformation: result.IsMisinformation,
		CredibilityScore: result.CredibilityScore,
		CredibilityLevel: string(result.CredibilityLevel),
		Result:           result,
	}
	if err := a.db.SaveAnalysis(record); err != nil {
		ctxLog.WithError(err).WithField("language", langCode).Error("failed to save analysis")
	}
}

func (a *Analyzer) publish(sub *models.Submission, analysis *Analysis, variants []models.LocalizedResult, ctxLog *log.Entry) {
	if a.publisher == nil {
		return
	}
	claim := models.AnalyzedClaim{
		ID:         sub.ID,
		Modality:   sub.Modality,
		Content:    sub.Content,
		SourceURL:  sub.SourceURL,
		Source:     analysis.Source,
		Results:    variants,
		AnalyzedAt: time.Now().UTC(),
	}
	if err := a.publisher.PublishJSON(a.cfg.RabbitMQ.AnalyzedClaimRoutingKey, claim); err != nil {
		ctxLog.WithError(err).Error("failed to publish analyzed claim")
		return
	}
	ctxLog.WithField("variants", len(variants)).Info("published analyzed claim")
}
