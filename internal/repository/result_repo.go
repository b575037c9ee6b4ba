package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adyen/productprobe/internal/models"
	"github.com/adyen/productprobe/internal/outcome"
)

// ResultRepository handles database operations for scenario results
type ResultRepository struct {
	db     *sql.DB
	driver string
}

// NewResultRepository creates a new result repository. driverName is the database/sql
// driver name ("postgres" or "sqlite") and selects the placeholder style.
func NewResultRepository(db *sql.DB, driverName string) *ResultRepository {
	return &ResultRepository{db: db, driver: driverName}
}

// SaveResult inserts a scenario result, assigning an ID when it has none
func (r *ResultRepository) SaveResult(result *models.ScenarioResult) error {
	if result.ID == "" {
		result.ID = uuid.New().String()
	}

	query := r.rebind(`
		INSERT INTO scenario_results (id, run_id, scenario, outcome, verdict, final_url, message,
		                              phase, screenshot_path, started_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`)

	_, err := r.db.Exec(query,
		result.ID,
		result.RunID,
		result.Scenario,
		result.Outcome.String(),
		string(result.Verdict),
		result.FinalURL,
		result.Message,
		result.Phase,
		result.ScreenshotPath,
		result.StartedAt.UTC(),
		result.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to save scenario result: %w", err)
	}

	return nil
}

// ListByRun retrieves the results of one run in start order
func (r *ResultRepository) ListByRun(runID string) ([]models.ScenarioResult, error) {
	query := r.rebind(`
		SELECT id, run_id, scenario, outcome, verdict, final_url, message,
		       phase, screenshot_path, started_at, duration_ms
		FROM scenario_results
		WHERE run_id = $1
		ORDER BY started_at, scenario
	`)

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenario results: %w", err)
	}
	defer rows.Close()

	var results []models.ScenarioResult
	for rows.Next() {
		var (
			res        models.ScenarioResult
			outcomeStr string
			verdict    string
			durationMS int64
		)
		if err := rows.Scan(
			&res.ID,
			&res.RunID,
			&res.Scenario,
			&outcomeStr,
			&verdict,
			&res.FinalURL,
			&res.Message,
			&res.Phase,
			&res.ScreenshotPath,
			&res.StartedAt,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("failed to scan scenario result: %w", err)
		}
		res.Outcome = outcome.Parse(outcomeStr)
		res.Verdict = models.Verdict(verdict)
		res.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scenario results: %w", err)
	}

	return results, nil
}

// rebind rewrites $N placeholders to ? for SQLite
func (r *ResultRepository) rebind(query string) string {
	if r.driver != "sqlite" {
		return query
	}
	var b strings.Builder
	for i := 0; i < len(query); i++ {
		if query[i] == '$' {
			j := i + 1
			for j < len(query) && query[j] >= '0' && query[j] <= '9' {
				j++
			}
			if j > i+1 {
				b.WriteByte('?')
				i = j - 1
				continue
			}
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
