// Package cache is a rebuildable SQLite index over the metrics JSONL log.
// It exists for ad-hoc and dashboard queries that would otherwise mean
// scanning the whole log on every request; it is never a second source of
// truth and Rebuild always starts from the log's own records.
package cache

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/daydemir/ralph/internal/metrics"
)

//go:embed schema.sql
var schemaSQL string

// Cache wraps a SQLite database holding a denormalized copy of TaskMetric
// records.
type Cache struct {
	db *sql.DB
}

// Open creates (if needed) and opens the cache database at dbPath.
func Open(dbPath string) (*Cache, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Rebuild replaces the cache's contents with records, the current contents
// of the metrics log. Called whenever the log may have changed since the
// cache was last built; safe to call on a fresh, empty database too.
func (c *Cache) Rebuild(records []metrics.TaskMetric) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM task_metrics`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO task_metrics
		(task_id, type, aggregate, domain, complexity, estimate, actual, iterations, duration_days, files_changed, lines_changed, blockers, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range records {
		if _, err := stmt.Exec(
			m.TaskID, m.Type, m.Aggregate, m.Domain, m.Complexity,
			m.Estimate, m.Actual, m.Iterations, m.DurationDays,
			m.FilesChanged, m.LinesChanged, m.Blockers, m.CompletedAt,
		); err != nil {
			return fmt.Errorf("insert %s: %w", m.TaskID, err)
		}
	}

	return tx.Commit()
}

// CountByType returns the number of recorded tasks per type, read from the
// cache rather than the log.
func (c *Cache) CountByType() (map[string]int, error) {
	rows, err := c.db.Query(`SELECT type, COUNT(*) FROM task_metrics GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("count by type: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[t] = n
	}
	return out, rows.Err()
}

// AvgIterationsByAggregate returns the mean iteration count per aggregate
// grouping, read from the cache for the dashboard's "avg iterations by
// aggregate" breakdown.
func (c *Cache) AvgIterationsByAggregate() (map[string]float64, error) {
	rows, err := c.db.Query(`SELECT aggregate, AVG(iterations) FROM task_metrics WHERE aggregate != '' GROUP BY aggregate`)
	if err != nil {
		return nil, fmt.Errorf("avg iterations: %w", err)
	}
	defer rows.Close()

	out := map[string]float64{}
	for rows.Next() {
		var agg string
		var avg float64
		if err := rows.Scan(&agg, &avg); err != nil {
			return nil, fmt.Errorf("scan avg: %w", err)
		}
		out[agg] = avg
	}
	return out, rows.Err()
}
