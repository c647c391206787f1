package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"immunostat/domain/cohort"
)

// InsertSubjects upserts subject rows inside one transaction.
func (s *Store) InsertSubjects(ctx context.Context, subjects []cohort.Subject) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := s.db.Rebind(`INSERT INTO subjects
			(subject_id, project_id, condition, age, sex, treatment, response)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (subject_id) DO UPDATE SET
				project_id = excluded.project_id,
				condition  = excluded.condition,
				age        = excluded.age,
				sex        = excluded.sex,
				treatment  = excluded.treatment,
				response   = excluded.response`)
		for _, sub := range subjects {
			if _, err := tx.ExecContext(ctx, query,
				sub.SubjectID, sub.ProjectID, sub.Condition, sub.Age,
				sub.Sex, sub.Treatment, sub.Response); err != nil {
				return fmt.Errorf("failed to insert subject %s: %w", sub.SubjectID, err)
			}
		}
		return nil
	})
}

// InsertSamples upserts sample rows inside one transaction.
func (s *Store) InsertSamples(ctx context.Context, samples []cohort.Sample) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := s.db.Rebind(`INSERT INTO samples
			(sample_id, subject_id, sample_type, visit_time)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (sample_id) DO UPDATE SET
				subject_id  = excluded.subject_id,
				sample_type = excluded.sample_type,
				visit_time  = excluded.visit_time`)
		for _, smp := range samples {
			if _, err := tx.ExecContext(ctx, query,
				smp.SampleID, smp.SubjectID, smp.SampleType, smp.VisitTime); err != nil {
				return fmt.Errorf("failed to insert sample %s: %w", smp.SampleID, err)
			}
		}
		return nil
	})
}

// InsertCellCounts upserts long-form measurements inside one transaction.
func (s *Store) InsertCellCounts(ctx context.Context, counts []cohort.CellCount) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := s.db.Rebind(`INSERT INTO cell_counts (sample_id, cell_type, count)
			VALUES (?, ?, ?)
			ON CONFLICT (sample_id, cell_type) DO UPDATE SET count = excluded.count`)
		for _, cc := range counts {
			if _, err := tx.ExecContext(ctx, query, cc.SampleID, cc.CellType, cc.Count); err != nil {
				return fmt.Errorf("failed to insert cell count %s/%s: %w",
					cc.SampleID, cc.CellType, err)
			}
		}
		return nil
	})
}

// DeleteSample removes one sample and its measurements.
func (s *Store) DeleteSample(ctx context.Context, sampleID string) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			s.db.Rebind(`DELETE FROM cell_counts WHERE sample_id = ?`), sampleID); err != nil {
			return fmt.Errorf("failed to delete cell counts for %s: %w", sampleID, err)
		}
		result, err := tx.ExecContext(ctx,
			s.db.Rebind(`DELETE FROM samples WHERE sample_id = ?`), sampleID)
		if err != nil {
			return fmt.Errorf("failed to delete sample %s: %w", sampleID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("sample not found: %s", sampleID)
		}
		return nil
	})
}

const cellCountColumns = `
	cc.sample_id, s.subject_id, cc.cell_type, cc.count,
	sub.project_id, sub.condition, sub.treatment,
	COALESCE(sub.response, '') AS response, sub.sex,
	s.sample_type, s.visit_time`

// FetchCellCounts returns the joined long-form records matching the
// filter, ordered by (sample, cell type) for deterministic downstream
// processing.
func (s *Store) FetchCellCounts(ctx context.Context, filter cohort.Filter) ([]cohort.CellCountRecord, error) {
	where, args := filterClauses(filter)
	query := fmt.Sprintf(`SELECT %s
		FROM cell_counts cc
		JOIN samples s   ON s.sample_id = cc.sample_id
		JOIN subjects sub ON sub.subject_id = s.subject_id
		%s
		ORDER BY cc.sample_id, cc.cell_type`, cellCountColumns, where)

	var records []cohort.CellCountRecord
	if err := s.db.SelectContext(ctx, &records, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to fetch cell counts: %w", err)
	}
	return records, nil
}

// Counts reports filtered cohort size.
func (s *Store) Counts(ctx context.Context, filter cohort.Filter) (cohort.CohortCounts, error) {
	where, args := filterClauses(filter)
	query := fmt.Sprintf(`SELECT
			COUNT(DISTINCT s.sample_id)  AS n_samples,
			COUNT(DISTINCT s.subject_id) AS n_subjects
		FROM samples s
		JOIN subjects sub ON sub.subject_id = s.subject_id
		%s`, where)

	var counts cohort.CohortCounts
	if err := s.db.GetContext(ctx, &counts, s.db.Rebind(query), args...); err != nil {
		return counts, fmt.Errorf("failed to count cohort: %w", err)
	}
	return counts, nil
}

// CohortFlow computes the attrition table for a filter: cohort size as
// each criterion is applied cumulatively, in a fixed order.
func (s *Store) CohortFlow(ctx context.Context, filter cohort.Filter) ([]cohort.FlowStep, error) {
	steps := []struct {
		name   string
		narrow func(*cohort.Filter)
	}{
		{"all samples", func(f *cohort.Filter) { *f = cohort.Filter{Time: cohort.TimeAll} }},
		{"condition: " + orAll(filter.Condition), func(f *cohort.Filter) { f.Condition = filter.Condition }},
		{"treatment: " + orAll(filter.Treatment), func(f *cohort.Filter) { f.Treatment = filter.Treatment }},
		{"sample type: " + orAll(filter.SampleType), func(f *cohort.Filter) { f.SampleType = filter.SampleType }},
		{"time: " + string(timeOrAll(filter.Time)), func(f *cohort.Filter) { f.Time = filter.Time }},
	}

	var flow []cohort.FlowStep
	var cumulative cohort.Filter
	for _, step := range steps {
		step.narrow(&cumulative)
		counts, err := s.Counts(ctx, cumulative)
		if err != nil {
			return nil, err
		}
		flow = append(flow, cohort.FlowStep{
			Step:      step.name,
			NSamples:  counts.NSamples,
			NSubjects: counts.NSubjects,
		})
	}
	return flow, nil
}

// filterClauses renders the filter as a WHERE clause over the joined
// samples/subjects tables. Empty and "all" fields match everything.
func filterClauses(filter cohort.Filter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if active(filter.Condition) {
		clauses = append(clauses, "LOWER(sub.condition) = LOWER(?)")
		args = append(args, filter.Condition)
	}
	if active(filter.Treatment) {
		clauses = append(clauses, "LOWER(sub.treatment) = LOWER(?)")
		args = append(args, filter.Treatment)
	}
	if active(filter.SampleType) {
		clauses = append(clauses, "LOWER(s.sample_type) = LOWER(?)")
		args = append(args, filter.SampleType)
	}
	if filter.Time == cohort.TimeBaselineOnly {
		clauses = append(clauses, "s.visit_time = 0")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func active(field string) bool {
	return field != "" && !strings.EqualFold(field, "all")
}

func orAll(field string) string {
	if !active(field) {
		return "all"
	}
	return field
}

func timeOrAll(t cohort.TimeFilter) cohort.TimeFilter {
	if t == "" {
		return cohort.TimeAll
	}
	return t
}
