package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"

	"claim-analyze-pipeline/config"
	"claim-analyze-pipeline/models"
)

// Database represents the database connection
type Database struct {
	db *sql.DB
}

// ClaimAnalysis is a persisted analysis variant. The full result tree is
// stored as JSON alongside the fields that are queried directly.
type ClaimAnalysis struct {
	ID               string
	Modality         string
	Content          string
	SourceURL        string
	Source           string
	Language         string
	RawResponse      string
	IsMisinformation bool
	CredibilityScore int
	CredibilityLevel string
	Result           *models.AnalysisResult
	CreatedAt        time.Time
}

// NewDatabase creates a new database connection
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection with exponential backoff retry
	var waitInterval time.Duration = 1 * time.Second
	for {
		if err := db.Ping(); err == nil {
			break // Connection successful
		}
		log.Warnf("Database connection failed, retrying in %v", waitInterval)
		time.Sleep(waitInterval)
		waitInterval *= 2 // Exponential backoff: 1s, 2s, 4s, 8s, ...
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Database{db: db}, nil
}

// NewWithDB wraps an existing connection; used by tests.
func NewWithDB(db *sql.DB) *Database {
	return &Database{db: db}
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// GetDB returns the underlying sql.DB
func (d *Database) GetDB() *sql.DB {
	return d.db
}

// CreateClaimAnalysisTable creates the claim_analysis table if it doesn't exist
func (d *Database) CreateClaimAnalysisTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS claim_analysis (
		id VARCHAR(36) NOT NULL,
		modality VARCHAR(16) NOT NULL,
		content TEXT,
		source_url VARCHAR(2048) DEFAULT '',
		source VARCHAR(255) NOT NULL,
		language VARCHAR(8) NOT NULL DEFAULT 'en',
		raw_response MEDIUMTEXT,
		is_misinformation BOOLEAN DEFAULT FALSE,
		credibility_score INT DEFAULT 0,
		credibility_level VARCHAR(16) NOT NULL DEFAULT 'VeryLow',
		result_json MEDIUMTEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX id_index (id),
		INDEX source_index (source),
		INDEX idx_claim_analysis_language (language),
		INDEX idx_claim_analysis_level (credibility_level)
	)`

	_, err := d.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create claim_analysis table: %w", err)
	}

	log.Info("claim_analysis table created/verified successfully")
	return nil
}

// SaveAnalysis persists one analysis variant.
func (d *Database) SaveAnalysis(a *ClaimAnalysis) error {
	resultJSON, err := json.Marshal(a.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	query := `
	INSERT INTO claim_analysis (
		id, modality, content, source_url, source, language, raw_response,
		is_misinformation, credibility_score, credibility_level, result_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = d.db.Exec(query,
		a.ID,
		a.Modality,
		a.Content,
		a.SourceURL,
		a.Source,
		a.Language,
		a.RawResponse,
		a.IsMisinformation,
		a.CredibilityScore,
		a.CredibilityLevel,
		string(resultJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// GetAnalysis fetches the analysis variant for an ID and language.
// Pass language "" to get the English original.
func (d *Database) GetAnalysis(id, language string) (*ClaimAnalysis, error) {
	if language == "" {
		language = "en"
	}

	query := `
	SELECT id, modality, content, source_url, source, language, raw_response,
		is_misinformation, credibility_score, credibility_level, result_json, created_at
	FROM claim_analysis
	WHERE id = ? AND language = ?
	ORDER BY created_at DESC
	LIMIT 1`

	var a ClaimAnalysis
	var resultJSON string
	err := d.db.QueryRow(query, id, language).Scan(
		&a.ID,
		&a.Modality,
		&a.Content,
		&a.SourceURL,
		&a.Source,
		&a.Language,
		&a.RawResponse,
		&a.IsMisinformation,
		&a.CredibilityScore,
		&a.CredibilityLevel,
		&resultJSON,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if resultJSON != "" {
		var result models.AnalysisResult
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			return nil, fmt.Errorf("failed to decode stored result: %w", err)
		}
		a.Result = &result
	}
	return &a, nil
}

// Stats summarizes stored analyses.
type Stats struct {
	TotalAnalyzed  int            `json:"total_analyzed"`
	Misinformation int            `json:"misinformation"`
	BySource       map[string]int `json:"by_source"`
	ByLevel        map[string]int `json:"by_level"`
}

// GetStats returns aggregate counts over the claim_analysis table.
func (d *Database) GetStats() (*Stats, error) {
	stats := &Stats{
		BySource: make(map[string]int),
		ByLevel:  make(map[string]int),
	}

	if err := d.db.QueryRow("SELECT COUNT(*) FROM claim_analysis").Scan(&stats.TotalAnalyzed); err != nil {
		return nil, fmt.Errorf("failed to count analyses: %w", err)
	}
	if err := d.db.QueryRow("SELECT COUNT(*) FROM claim_analysis WHERE is_misinformation = TRUE").Scan(&stats.Misinformation); err != nil {
		return nil, fmt.Errorf("failed to count misinformation: %w", err)
	}

	rows, err := d.db.Query("SELECT source, COUNT(*) FROM claim_analysis GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("failed to group by source: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			continue
		}
		stats.BySource[source] = count
	}

	levelRows, err := d.db.Query("SELECT credibility_level, COUNT(*) FROM claim_analysis GROUP BY credibility_level")
	if err != nil {
		return nil, fmt.Errorf("failed to group by level: %w", err)
	}
	defer levelRows.Close()
	for levelRows.Next() {
		var level string
		var count int
		if err := levelRows.Scan(&level, &count); err != nil {
			continue
		}
		stats.ByLevel[level] = count
	}

	return stats, nil
}
