package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhujal-ai/bhujal/internal/log"
)

// newTestStore opens a fresh SQLite store in a temp directory.
func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRows() []Reading {
	return []Reading{
		{State: "Uttarakhand", District: "Dehradun", Block: "Doiwala", Year: 2020, LevelM: 10.2, Stage: StageSafe},
		{State: "Uttarakhand", District: "Dehradun", Block: "Doiwala", Year: 2021, LevelM: 10.8, Stage: StageSemiCritical},
		{State: "Uttarakhand", District: "Dehradun", Block: "Doiwala", Year: 2022, LevelM: 11.5, Stage: StageCritical},
		{State: "Uttarakhand", District: "Haridwar", Block: "Roorkee", Year: 2021, LevelM: 7.4, Stage: StageSafe},
		{State: "Uttarakhand", District: "Haridwar", Block: "Roorkee", Year: 2022, LevelM: 7.6, Stage: StageSafe},
	}
}

func TestNormalizeStage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"canonical over-exploited", "Over-exploited", StageOverExploited},
		{"over exploited spaced upper", "OVER EXPLOITED", StageOverExploited},
		{"overexploited joined", "overexploited", StageOverExploited},
		{"semi critical underscore", "Semi_Critical", StageSemiCritical},
		{"semi-critical", "semi-critical", StageSemiCritical},
		{"critical", "CRITICAL", StageCritical},
		{"safe", "safe", StageSafe},
		{"unknown passes through trimmed", "  Unassessed  ", "Unassessed"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeStage(tt.input))
		})
	}
}

func TestLocationName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Doiwala", Location{State: "Uttarakhand", District: "Dehradun", Block: "Doiwala"}.Name())
	assert.Equal(t, "Dehradun", Location{State: "Uttarakhand", District: "Dehradun"}.Name())
	assert.Equal(t, "Uttarakhand", Location{State: "Uttarakhand"}.Name())
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.ReplaceAll(ctx, sampleRows()))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	doiwala := Location{State: "Uttarakhand", District: "Dehradun", Block: "Doiwala"}

	t.Run("series ordered by year", func(t *testing.T) {
		series, err := s.Series(ctx, doiwala, 0, 0)
		require.NoError(t, err)
		require.Len(t, series, 3)
		assert.Equal(t, []int{2020, 2021, 2022}, []int{series[0].Year, series[1].Year, series[2].Year})
		assert.Equal(t, StageCritical, series[2].Stage)
	})

	t.Run("series bounded", func(t *testing.T) {
		series, err := s.Series(ctx, doiwala, 2021, 2022)
		require.NoError(t, err)
		require.Len(t, series, 2)
		assert.Equal(t, 2021, series[0].Year)
	})

	t.Run("reading at year", func(t *testing.T) {
		r, err := s.ReadingAt(ctx, doiwala, 2021)
		require.NoError(t, err)
		assert.InDelta(t, 10.8, r.LevelM, 1e-9)
		assert.Equal(t, StageSemiCritical, r.Stage)
	})

	t.Run("reading at missing year", func(t *testing.T) {
		_, err := s.ReadingAt(ctx, doiwala, 1999)
		require.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "Doiwala")
	})

	t.Run("latest", func(t *testing.T) {
		r, err := s.Latest(ctx, doiwala)
		require.NoError(t, err)
		assert.Equal(t, 2022, r.Year)
	})

	t.Run("locations distinct and ordered", func(t *testing.T) {
		locs, err := s.Locations(ctx)
		require.NoError(t, err)
		require.Len(t, locs, 2)
		assert.Equal(t, "Doiwala", locs[0].Block)
		assert.Equal(t, "Roorkee", locs[1].Block)
	})

	t.Run("year range", func(t *testing.T) {
		lo, hi, err := s.YearRange(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2020, lo)
		assert.Equal(t, 2022, hi)
	})

	t.Run("replace all wipes previous rows", func(t *testing.T) {
		require.NoError(t, s.ReplaceAll(ctx, sampleRows()[:1]))
		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		_, err = s.Latest(ctx, Location{State: "Uttarakhand", District: "Haridwar", Block: "Roorkee"})
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSQLiteEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	loc := Location{State: "Uttarakhand", District: "Dehradun"}

	series, err := s.Series(ctx, loc, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, series)

	_, err = s.Latest(ctx, loc)
	require.ErrorIs(t, err, ErrNotFound)

	_, _, err = s.YearRange(ctx)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteReplaceAllEmptyInput(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	err := s.ReplaceAll(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoRows)
}

func TestSQLiteRejectsDuplicateYear(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	dup := []Reading{
		{State: "A", District: "B", Block: "C", Year: 2020, LevelM: 1.0, Stage: StageSafe},
		{State: "A", District: "B", Block: "C", Year: 2020, LevelM: 2.0, Stage: StageSafe},
	}
	err := s.ReplaceAll(context.Background(), dup)
	require.Error(t, err)
}

func TestOpenSQLiteCreatesDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "bhujal.db")
	s, err := OpenSQLite(path, log.NewNop())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Ping(context.Background()))
}

func TestSourceNames(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	assert.Equal(t, "SQLite gw_levels", s.Source())
}
