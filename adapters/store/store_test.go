package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"immunostat/domain/cohort"
	"immunostat/internal/config"
	"immunostat/internal/testkit"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.InitSchema(context.Background()))
	return st
}

func seedTestStore(t *testing.T, st *Store) {
	t.Helper()
	ctx := context.Background()
	subjects, samples, counts := testkit.NewCohortGenerator(testkit.DefaultCohortConfig()).GenerateDataset()
	require.NoError(t, st.InsertSubjects(ctx, subjects))
	require.NoError(t, st.InsertSamples(ctx, samples))
	require.NoError(t, st.InsertCellCounts(ctx, counts))
}

func TestFetchCellCountsDefaultFilter(t *testing.T) {
	st := openTestStore(t)
	seedTestStore(t, st)

	records, err := st.FetchCellCounts(context.Background(), cohort.DefaultFilter())
	require.NoError(t, err)
	require.NotEmpty(t, records)

	for _, rec := range records {
		require.Equal(t, "melanoma", rec.Condition)
		require.Equal(t, "miraclib", rec.Treatment)
		require.Equal(t, "PBMC", rec.SampleType)
		require.True(t, rec.VisitTime.IsBaseline())
		require.Positive(t, rec.Count)
	}
}

func TestFetchCellCountsAllTimepoints(t *testing.T) {
	st := openTestStore(t)
	seedTestStore(t, st)
	ctx := context.Background()

	baseline, err := st.FetchCellCounts(ctx, cohort.DefaultFilter())
	require.NoError(t, err)

	all := cohort.DefaultFilter()
	all.Time = cohort.TimeAll
	everything, err := st.FetchCellCounts(ctx, all)
	require.NoError(t, err)

	// The generator produces follow-up samples too.
	require.Greater(t, len(everything), len(baseline))
}

func TestCountsAndCohortFlow(t *testing.T) {
	st := openTestStore(t)
	seedTestStore(t, st)
	ctx := context.Background()

	counts, err := st.Counts(ctx, cohort.DefaultFilter())
	require.NoError(t, err)
	require.Equal(t, 20, counts.NSubjects)
	require.Equal(t, 20, counts.NSamples) // one baseline sample per subject

	flow, err := st.CohortFlow(ctx, cohort.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, flow, 5)

	// Attrition never grows as criteria accumulate.
	for i := 1; i < len(flow); i++ {
		require.LessOrEqual(t, flow[i].NSamples, flow[i-1].NSamples, "step %q", flow[i].Step)
		require.LessOrEqual(t, flow[i].NSubjects, flow[i-1].NSubjects, "step %q", flow[i].Step)
	}
	require.Equal(t, counts.NSamples, flow[len(flow)-1].NSamples)
}

func TestSubsetStats(t *testing.T) {
	st := openTestStore(t)
	seedTestStore(t, st)

	stats, err := st.SubsetStats(context.Background(), cohort.DefaultFilter())
	require.NoError(t, err)

	require.Len(t, stats.Projects, 1)
	require.Equal(t, 20, stats.Projects[0].NSamples)

	totalByResponse := 0
	for _, rc := range stats.Response {
		totalByResponse += rc.NSubjects
	}
	require.Equal(t, 20, totalByResponse)

	totalBySex := 0
	for _, sc := range stats.Sex {
		totalBySex += sc.NSubjects
	}
	require.Equal(t, 20, totalBySex)
}

func TestSubsetStatsAvgBCell(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.InsertSubjects(ctx, []cohort.Subject{
		{SubjectID: "p1", ProjectID: "prj1", Condition: "melanoma", Age: 50,
			Sex: "M", Treatment: "miraclib", Response: "yes"},
	}))
	require.NoError(t, st.InsertSamples(ctx, []cohort.Sample{
		{SampleID: "s1", SubjectID: "p1", SampleType: "PBMC", VisitTime: 0},
	}))
	require.NoError(t, st.InsertCellCounts(ctx, []cohort.CellCount{
		{SampleID: "s1", CellType: "b_cell", Count: 25},
		{SampleID: "s1", CellType: "nk_cell", Count: 75},
	}))

	stats, err := st.SubsetStats(ctx, cohort.DefaultFilter())
	require.NoError(t, err)
	require.True(t, stats.AvgBCellValid)
	require.InDelta(t, 0.25, stats.AvgBCellMaleResponders, 1e-9)
}

func TestSubsetStatsAvgBCellEmptySubset(t *testing.T) {
	st := openTestStore(t)

	stats, err := st.SubsetStats(context.Background(), cohort.DefaultFilter())
	require.NoError(t, err)
	require.False(t, stats.AvgBCellValid)
}

func TestInsertIsIdempotent(t *testing.T) {
	st := openTestStore(t)
	seedTestStore(t, st)
	seedTestStore(t, st) // same rows again: upsert, not duplicate

	counts, err := st.Counts(context.Background(), cohort.DefaultFilter())
	require.NoError(t, err)
	require.Equal(t, 20, counts.NSubjects)
}

func TestDeleteSample(t *testing.T) {
	st := openTestStore(t)
	seedTestStore(t, st)
	ctx := context.Background()

	before, err := st.Counts(ctx, cohort.DefaultFilter())
	require.NoError(t, err)

	require.NoError(t, st.DeleteSample(ctx, "smp001_0"))

	after, err := st.Counts(ctx, cohort.DefaultFilter())
	require.NoError(t, err)
	require.Equal(t, before.NSamples-1, after.NSamples)

	require.Error(t, st.DeleteSample(ctx, "smp001_0"))
}

func TestResetClearsEverything(t *testing.T) {
	st := openTestStore(t)
	seedTestStore(t, st)
	ctx := context.Background()

	require.NoError(t, st.Reset(ctx))
	counts, err := st.Counts(ctx, cohort.DefaultFilter())
	require.NoError(t, err)
	require.Zero(t, counts.NSamples)
	require.Zero(t, counts.NSubjects)
}
