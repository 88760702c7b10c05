package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/spray.report/internal/spray"
)

// Run is one recorded spray run.
type Run struct {
	RunID             string  `json:"run_id"`
	CreatedAtNs       int64   `json:"created_at_ns"`
	Seed              int64   `json:"seed"`
	Width             float64 `json:"width"`
	Height            float64 `json:"height"`
	Generated         int     `json:"generated"`
	Visited           int     `json:"visited"`
	TotalArea         float64 `json:"total_area"`
	CoverageUnitArea  float64 `json:"coverage_unit_area"`
	RequiredPasses    float64 `json:"required_passes"`
	RequiredActuation float64 `json:"required_actuation"`
	MovementUnits     string  `json:"movement_units"`
	Notes             string  `json:"notes,omitempty"`
}

// Visit is one entry of a run's farthest-first order.
type Visit struct {
	Seq      int     `json:"seq"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Size     float64 `json:"size"`
	Distance float64 `json:"distance"`
	Angle    float64 `json:"angle"`
}

// RunFromPlan builds the Run and Visit rows for a finished plan.
func RunFromPlan(plan *spray.Plan, seed int64, movementUnits string) (*Run, []Visit) {
	run := &Run{
		Seed:              seed,
		Width:             plan.Width,
		Height:            plan.Height,
		Generated:         plan.Generated,
		Visited:           len(plan.Ordered),
		TotalArea:         plan.Summary.TotalArea,
		CoverageUnitArea:  plan.Summary.CoverageUnitArea,
		RequiredPasses:    plan.Summary.RequiredPasses,
		RequiredActuation: plan.Summary.RequiredActuation,
		MovementUnits:     movementUnits,
	}
	visits := make([]Visit, len(plan.Ordered))
	for i, t := range plan.Ordered {
		visits[i] = Visit{
			Seq:      i,
			X:        t.Position.X,
			Y:        t.Position.Y,
			Size:     t.Size,
			Distance: t.Distance,
			Angle:    t.Angle,
		}
	}
	return run, visits
}

// InsertRun stores a run and its visits in one transaction.
// If run.RunID is empty, a new UUID is generated; a zero CreatedAtNs is
// stamped with the current time.
func (s *Store) InsertRun(run *Run, visits []Visit) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAtNs == 0 {
		run.CreatedAtNs = time.Now().UnixNano()
	}
	if run.MovementUnits == "" {
		run.MovementUnits = "mm"
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO spray_runs (
			run_id, created_at_ns, seed, width, height, generated, visited,
			total_area, coverage_unit_area, required_passes, required_actuation,
			movement_units, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.RunID,
		run.CreatedAtNs,
		run.Seed,
		run.Width,
		run.Height,
		run.Generated,
		run.Visited,
		run.TotalArea,
		run.CoverageUnitArea,
		run.RequiredPasses,
		run.RequiredActuation,
		run.MovementUnits,
		nullString(run.Notes),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO spray_visits (run_id, seq, x, y, size, distance, angle)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert visit: %w", err)
	}
	defer stmt.Close()

	for _, v := range visits {
		if _, err := stmt.Exec(run.RunID, v.Seq, v.X, v.Y, v.Size, v.Distance, v.Angle); err != nil {
			return fmt.Errorf("insert visit %d: %w", v.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert run: %w", err)
	}
	return nil
}

const runColumns = `
	run_id, created_at_ns, seed, width, height, generated, visited,
	total_area, coverage_unit_area, required_passes, required_actuation,
	movement_units, notes
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	r := &Run{}
	var notes sql.NullString
	err := row.Scan(
		&r.RunID, &r.CreatedAtNs, &r.Seed, &r.Width, &r.Height, &r.Generated, &r.Visited,
		&r.TotalArea, &r.CoverageUnitArea, &r.RequiredPasses, &r.RequiredActuation,
		&r.MovementUnits, &notes,
	)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		r.Notes = notes.String
	}
	return r, nil
}

// GetRun returns a run by ID, or sql.ErrNoRows.
func (s *Store) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM spray_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs first. limit <= 0 means no limit.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM spray_runs ORDER BY created_at_ns DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// VisitsByRun returns a run's visits in sequence order.
func (s *Store) VisitsByRun(runID string) ([]Visit, error) {
	rows, err := s.db.Query(`
		SELECT seq, x, y, size, distance, angle
		FROM spray_visits
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.Seq, &v.X, &v.Y, &v.Size, &v.Distance, &v.Angle); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// DeleteRun removes a run and, via the foreign key, its visits.
func (s *Store) DeleteRun(runID string) error {
	result, err := s.db.Exec("DELETE FROM spray_runs WHERE run_id = ?", runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
