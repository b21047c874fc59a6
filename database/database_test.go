package database

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"

	"claim-analyze-pipeline/models"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func TestSaveAnalysis(t *testing.T) {
	it(func() {
		d := NewWithDB(db)

		result := &models.AnalysisResult{
			IsMisinformation: true,
			CredibilityScore: 20,
			CredibilityLevel: models.LevelVeryLow,
			Explanation:      "Multiple fabricated quotes.",
		}
		resultJSON, _ := json.Marshal(result)

		mock.ExpectExec("INSERT INTO claim_analysis").
			WithArgs(
				"id-1", "text", "some viral claim", "", "Gemini", "en", "raw model text",
				true, 20, "VeryLow", string(resultJSON),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := d.SaveAnalysis(&ClaimAnalysis{
			ID:               "id-1",
			Modality:         "text",
			Content:          "some viral claim",
			Source:           "Gemini",
			Language:         "en",
			RawResponse:      "raw model text",
			IsMisinformation: true,
			CredibilityScore: 20,
			CredibilityLevel: "VeryLow",
			Result:           result,
		})
		if err != nil {
			t.Errorf("SaveAnalysis() error = %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestGetAnalysis(t *testing.T) {
	it(func() {
		d := NewWithDB(db)

		result := &models.AnalysisResult{
			CredibilityScore: 85,
			CredibilityLevel: models.LevelHigh,
			Explanation:      "Well sourced.",
		}
		resultJSON, _ := json.Marshal(result)
		createdAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows([]string{
			"id", "modality", "content", "source_url", "source", "language", "raw_response",
			"is_misinformation", "credibility_score", "credibility_level", "result_json", "created_at",
		}).AddRow(
			"id-1", "url", "", "https://example.com", "Gemini", "hi", "raw",
			false, 85, "High", string(resultJSON), createdAt,
		)

		mock.ExpectQuery("SELECT (.+) FROM claim_analysis").
			WithArgs("id-1", "hi").
			WillReturnRows(rows)

		got, err := d.GetAnalysis("id-1", "hi")
		if err != nil {
			t.Fatalf("GetAnalysis() error = %v", err)
		}
		if got.Language != "hi" {
			t.Errorf("Language = %q, want hi", got.Language)
		}
		if got.Result == nil || got.Result.CredibilityScore != 85 {
			t.Errorf("Result = %+v, want decoded score 85", got.Result)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestGetAnalysisDefaultsToEnglish(t *testing.T) {
	it(func() {
		d := NewWithDB(db)

		mock.ExpectQuery("SELECT (.+) FROM claim_analysis").
			WithArgs("id-1", "en").
			WillReturnError(sql.ErrNoRows)

		if _, err := d.GetAnalysis("id-1", ""); err != sql.ErrNoRows {
			t.Errorf("GetAnalysis() error = %v, want sql.ErrNoRows", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestGetStats(t *testing.T) {
	it(func() {
		d := NewWithDB(db)

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM claim_analysis$").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM claim_analysis WHERE is_misinformation").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
		mock.ExpectQuery("SELECT source, COUNT\\(\\*\\) FROM claim_analysis GROUP BY source").
			WillReturnRows(sqlmock.NewRows([]string{"source", "count"}).
				AddRow("Gemini", 9).AddRow("ChatGPT", 3))
		mock.ExpectQuery("SELECT credibility_level, COUNT\\(\\*\\) FROM claim_analysis GROUP BY credibility_level").
			WillReturnRows(sqlmock.NewRows([]string{"credibility_level", "count"}).
				AddRow("High", 6).AddRow("VeryLow", 4).AddRow("Medium", 2))

		stats, err := d.GetStats()
		if err != nil {
			t.Fatalf("GetStats() error = %v", err)
		}
		if stats.TotalAnalyzed != 12 {
			t.Errorf("TotalAnalyzed = %d, want 12", stats.TotalAnalyzed)
		}
		if stats.Misinformation != 4 {
			t.Errorf("Misinformation = %d, want 4", stats.Misinformation)
		}
		if stats.BySource["Gemini"] != 9 {
			t.Errorf("BySource[Gemini] = %d, want 9", stats.BySource["Gemini"])
		}
		if stats.ByLevel["High"] != 6 {
			t.Errorf("ByLevel[High] = %d, want 6", stats.ByLevel["High"])
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}
