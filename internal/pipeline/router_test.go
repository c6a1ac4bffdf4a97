package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bhujal-ai/bhujal/internal/i18n"
)

func TestYearBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		years    []int
		from, to int
	}{
		{"none", nil, 0, 0},
		{"single year opens the range", []int{2018}, 2018, 0},
		{"two years", []int{2018, 2022}, 2018, 2022},
		{"unordered", []int{2022, 2018, 2020}, 2018, 2022},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			from, to := yearBounds(tt.years)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
		})
	}
}

func TestDistinctYears(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{2019, 2024}, distinctYears([]int{2019, 2024, 2019}))
	assert.Nil(t, distinctYears(nil))
}

func TestDedupSort(t *testing.T) {
	t.Parallel()

	got := dedupSort([]string{"b", "a", "b", "a"})
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Nil(t, dedupSort(nil))
}

func TestDeltaSegment(t *testing.T) {
	t.Parallel()

	assert.Contains(t, deltaSegment(i18n.LangEN, 0.6), "falling by about 0.60")
	assert.Contains(t, deltaSegment(i18n.LangEN, -0.3), "recovering by about 0.30")
	assert.Equal(t, i18n.T(i18n.LangEN, "answer.trend.delta.flat"), deltaSegment(i18n.LangEN, 0.02))
	assert.Equal(t, i18n.T(i18n.LangEN, "answer.trend.delta.flat"), deltaSegment(i18n.LangEN, -0.02))
}

func TestMarkdownTable(t *testing.T) {
	t.Parallel()

	got := markdownTable([]string{"Year", "Level"}, [][]string{{"2020", "11.4"}, {"2021", "12.4"}})
	assert.Equal(t, "Year | Level\n----|-----\n2020 | 11.4\n2021 | 12.4", got)

	assert.Empty(t, markdownTable(nil, [][]string{{"2020"}}))
	assert.Empty(t, markdownTable([]string{"Year"}, nil))
}
