package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"immunostat/domain/cohort"
)

// SubsetStats builds the dashboard summary for a filtered cohort slice:
// per-project sample counts, subject breakdowns by response and sex, and
// the tracked mean baseline b_cell frequency among male responders.
func (s *Store) SubsetStats(ctx context.Context, filter cohort.Filter) (*cohort.SubsetStats, error) {
	counts, err := s.Counts(ctx, filter)
	if err != nil {
		return nil, err
	}

	where, args := filterClauses(filter)

	stats := &cohort.SubsetStats{Filter: filter, Counts: counts}

	projectQuery := fmt.Sprintf(`SELECT sub.project_id, COUNT(s.sample_id) AS n_samples
		FROM samples s
		JOIN subjects sub ON sub.subject_id = s.subject_id
		%s
		GROUP BY sub.project_id
		ORDER BY sub.project_id`, where)
	if err := s.db.SelectContext(ctx, &stats.Projects, s.db.Rebind(projectQuery), args...); err != nil {
		return nil, fmt.Errorf("failed to count samples by project: %w", err)
	}

	responseQuery := fmt.Sprintf(`SELECT COALESCE(NULLIF(sub.response, ''), 'unknown') AS label,
			COUNT(DISTINCT sub.subject_id) AS n_subjects
		FROM samples s
		JOIN subjects sub ON sub.subject_id = s.subject_id
		%s
		GROUP BY label
		ORDER BY label`, where)
	if err := s.db.SelectContext(ctx, &stats.Response, s.db.Rebind(responseQuery), args...); err != nil {
		return nil, fmt.Errorf("failed to count subjects by response: %w", err)
	}

	sexQuery := fmt.Sprintf(`SELECT sub.sex AS label,
			COUNT(DISTINCT sub.subject_id) AS n_subjects
		FROM samples s
		JOIN subjects sub ON sub.subject_id = s.subject_id
		%s
		GROUP BY sub.sex
		ORDER BY sub.sex`, where)
	if err := s.db.SelectContext(ctx, &stats.Sex, s.db.Rebind(sexQuery), args...); err != nil {
		return nil, fmt.Errorf("failed to count subjects by sex: %w", err)
	}

	avg, ok, err := s.avgBCellMaleResponders(ctx, filter)
	if err != nil {
		return nil, err
	}
	stats.AvgBCellMaleResponders = avg
	stats.AvgBCellValid = ok

	return stats, nil
}

// avgBCellMaleResponders computes the mean b_cell frequency over the
// filtered samples of male responders. Frequencies are derived per
// sample from the long-form counts, so the metric stays consistent with
// the analysis pipeline.
func (s *Store) avgBCellMaleResponders(ctx context.Context, filter cohort.Filter) (float64, bool, error) {
	where, args := filterClauses(filter)
	cond := "WHERE"
	if where != "" {
		cond = where + " AND"
	}
	query := fmt.Sprintf(`SELECT AVG(freq) FROM (
			SELECT CAST(cc.count AS REAL) / NULLIF(totals.total, 0) AS freq
			FROM cell_counts cc
			JOIN samples s    ON s.sample_id = cc.sample_id
			JOIN subjects sub ON sub.subject_id = s.subject_id
			JOIN (
				SELECT sample_id, SUM(count) AS total
				FROM cell_counts
				GROUP BY sample_id
			) totals ON totals.sample_id = cc.sample_id
			%s cc.cell_type = 'b_cell'
				AND LOWER(sub.sex) = 'm'
				AND LOWER(sub.response) = 'yes'
		) f`, cond)

	var avg sql.NullFloat64
	err := s.db.GetContext(ctx, &avg, s.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to average b_cell frequency: %w", err)
	}
	if !avg.Valid {
		return 0, false, nil
	}
	return avg.Float64, true, nil
}
