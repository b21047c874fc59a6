package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"claim-analyze-pipeline/config"
	"claim-analyze-pipeline/models"
	"claim-analyze-pipeline/service"
	"claim-analyze-pipeline/stubllm"
	"claim-analyze-pipeline/translator"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client := stubllm.NewClient()
	tr, err := translator.New(client, 2)
	if err != nil {
		t.Fatalf("translator.New() error = %v", err)
	}
	cfg := &config.Config{
		TranslationLanguages: map[string]string{"en": "English"},
	}
	analyzer := service.New(cfg, client, tr, nil, nil, nil, nil)
	h := NewHandlers(analyzer, nil)

	router := gin.New()
	api := router.Group("/api/v3")
	api.GET("/health", h.HealthCheck)
	api.POST("/analyze", h.Analyze)
	api.POST("/translate", h.Translate)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/v3/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodPost, "/api/v3/analyze", AnalyzeRequest{
		Modality: "text",
		Content:  "the sun orbits the earth",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ID     string                 `json:"id"`
		Source string                 `json:"source"`
		Result *models.AnalysisResult `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID == "" {
		t.Error("response missing generated id")
	}
	if resp.Source != "Stub" {
		t.Errorf("source = %q, want Stub", resp.Source)
	}
	if resp.Result == nil || resp.Result.CredibilityLevel == "" {
		t.Errorf("result = %+v, want populated verdict", resp.Result)
	}
}

func TestAnalyzeEndpointRejectsBadInput(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing modality", map[string]string{"content": "x"}, http.StatusBadRequest},
		{"unsupported modality", AnalyzeRequest{Modality: "audio", Content: "x"}, http.StatusBadRequest},
		{"no content", AnalyzeRequest{Modality: "text"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/v3/analyze", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestTranslateEndpoint(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodPost, "/api/v3/translate", TranslateRequest{
		Language: "hi",
		Result: &models.AnalysisResult{
			CredibilityScore: 70,
			CredibilityLevel: models.LevelMedium,
			Explanation:      "solid sourcing",
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Language string                 `json:"language"`
		Result   *models.AnalysisResult `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Result == nil || resp.Result.Explanation != "[Hindi] solid sourcing" {
		t.Errorf("result = %+v, want stub-tagged Hindi explanation", resp.Result)
	}
	if resp.Result.CredibilityLevel != models.LevelMedium {
		t.Errorf("level = %q, want Medium re-derived from score", resp.Result.CredibilityLevel)
	}
}
