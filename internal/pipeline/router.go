package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bhujal-ai/bhujal/internal/i18n"
	"github.com/bhujal-ai/bhujal/internal/intent"
	"github.com/bhujal-ai/bhujal/internal/store"
)

// retrieval is the structured product of one dispatch, before
// composition. Segments carry the grounded sentences; the rest feeds
// the Answer directly.
type retrieval struct {
	segments     []string
	headers      []string
	rows         [][]string
	stage        string
	delta        *float64
	citations    []string
	insufficient bool
}

// flatThreshold is the |delta| in m/yr under which a trend reads as
// stable rather than falling or recovering.
const flatThreshold = 0.05

// trendTableYears caps the trend table at the most recent readings.
const trendTableYears = 5

const missingCell = "—"

func (p *Pipeline) retrieve(ctx context.Context, query string, res intent.Result, lang string) (*retrieval, error) {
	ctx, span := tracer.Start(ctx, "pipeline.retrieve")
	defer span.End()

	switch res.Intent {
	case intent.Trend:
		return p.retrieveTrend(ctx, query, res.Years, lang)
	case intent.Stage:
		return p.retrieveStage(ctx, query, res.Years, lang)
	case intent.Compare:
		return p.retrieveCompare(ctx, query, res.Years, lang)
	case intent.Definition:
		return p.retrieveDefinition(query, lang), nil
	}
	return nil, fmt.Errorf("unhandled intent %v", res.Intent)
}

func (p *Pipeline) retrieveTrend(ctx context.Context, query string, years []int, lang string) (*retrieval, error) {
	locs := p.index.match(query)
	if len(locs) == 0 {
		return unknownLocation(lang), nil
	}
	loc := locs[0]

	from, to := yearBounds(years)
	series, err := p.store.Series(ctx, loc, from, to)
	if err != nil {
		return nil, fmt.Errorf("trend series for %s: %w", loc.Name(), err)
	}

	switch len(series) {
	case 0:
		return noReadings(loc, lang, from != 0 || to != 0), nil
	case 1:
		rd := series[0]
		return &retrieval{
			segments:  []string{i18n.Sprintf(lang, "answer.trend.single", loc.Name(), rd.LevelM, rd.Year)},
			headers:   trendHeaders(lang),
			rows:      [][]string{{strconv.Itoa(rd.Year), fmtLevel(rd.LevelM)}},
			stage:     rd.Stage,
			citations: []string{yearCitation(p.store.Source(), rd.Year)},
		}, nil
	}

	first, last := series[0], series[len(series)-1]
	prev := series[len(series)-2]
	// Unique years per location, so the gap is never zero.
	delta := (last.LevelM - prev.LevelM) / float64(last.Year-prev.Year)

	segments := []string{
		i18n.Sprintf(lang, "answer.trend.range", loc.Name(), first.LevelM, first.Year, last.LevelM, last.Year),
		deltaSegment(lang, delta),
		i18n.Sprintf(lang, "answer.trend.stage", last.Year, i18n.StageName(lang, last.Stage)),
	}

	tail := series
	if len(tail) > trendTableYears {
		tail = tail[len(tail)-trendTableYears:]
	}
	rows := make([][]string, 0, len(tail))
	for _, rd := range tail {
		rows = append(rows, []string{strconv.Itoa(rd.Year), fmtLevel(rd.LevelM)})
	}

	return &retrieval{
		segments:  segments,
		headers:   trendHeaders(lang),
		rows:      rows,
		stage:     last.Stage,
		delta:     &delta,
		citations: []string{rangeCitation(p.store.Source(), first.Year, last.Year)},
	}, nil
}

func (p *Pipeline) retrieveStage(ctx context.Context, query string, years []int, lang string) (*retrieval, error) {
	locs := p.index.match(query)
	if len(locs) == 0 {
		return unknownLocation(lang), nil
	}
	loc := locs[0]

	var (
		rd      *store.Reading
		err     error
		nearest bool
	)
	if len(years) > 0 {
		rd, err = p.store.ReadingAt(ctx, loc, years[0])
		if errors.Is(err, store.ErrNotFound) {
			rd, err = p.store.Latest(ctx, loc)
			nearest = err == nil
		}
	} else {
		rd, err = p.store.Latest(ctx, loc)
	}
	if errors.Is(err, store.ErrNotFound) {
		return noReadings(loc, lang, false), nil
	}
	if err != nil {
		return nil, fmt.Errorf("stage lookup for %s: %w", loc.Name(), err)
	}

	segments := []string{
		i18n.Sprintf(lang, "answer.stage", loc.Name(), i18n.StageName(lang, rd.Stage), rd.Year, rd.LevelM),
	}
	if nearest {
		segments = append(segments, i18n.Sprintf(lang, "answer.stage.nearest", years[0]))
	}

	return &retrieval{
		segments:  segments,
		stage:     rd.Stage,
		citations: []string{yearCitation(p.store.Source(), rd.Year)},
	}, nil
}

func (p *Pipeline) retrieveCompare(ctx context.Context, query string, years []int, lang string) (*retrieval, error) {
	locs := p.index.match(query)
	distinct := distinctYears(years)

	switch {
	case len(locs) >= 2:
		return p.compareLocations(ctx, locs, lang)
	case len(locs) == 1 && len(distinct) >= 2:
		return p.compareYears(ctx, locs[0], distinct[0], distinct[1], lang)
	case len(locs) == 1:
		return needTwo(lang), nil
	default:
		return unknownLocation(lang), nil
	}
}

func (p *Pipeline) compareLocations(ctx context.Context, locs []store.Location, lang string) (*retrieval, error) {
	segments := []string{i18n.T(lang, "answer.compare.intro")}
	rows := make([][]string, 0, len(locs))
	var citations []string
	present := 0

	for _, loc := range locs {
		rd, err := p.store.Latest(ctx, loc)
		if errors.Is(err, store.ErrNotFound) {
			rows = append(rows, []string{loc.Name(), missingCell, missingCell, missingCell})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("latest reading for %s: %w", loc.Name(), err)
		}
		present++
		segments = append(segments, i18n.Sprintf(lang, "answer.compare.row",
			loc.Name(), rd.LevelM, i18n.StageName(lang, rd.Stage), rd.Year))
		rows = append(rows, []string{
			loc.Name(), strconv.Itoa(rd.Year), fmtLevel(rd.LevelM), i18n.StageName(lang, rd.Stage),
		})
		citations = append(citations, yearCitation(p.store.Source(), rd.Year))
	}
	if present == 0 {
		return unknownLocation(lang), nil
	}

	return &retrieval{
		segments:  segments,
		headers:   compareHeaders(lang),
		rows:      rows,
		citations: dedupSort(citations),
	}, nil
}

// compareYears puts two assessment years of one location side by side
// with an estimated per-year change. A year with no reading shows as a
// dash row rather than failing the whole comparison.
func (p *Pipeline) compareYears(ctx context.Context, loc store.Location, y1, y2 int, lang string) (*retrieval, error) {
	r1, err := p.readingOrNil(ctx, loc, y1)
	if err != nil {
		return nil, err
	}
	r2, err := p.readingOrNil(ctx, loc, y2)
	if err != nil {
		return nil, err
	}
	if r1 == nil && r2 == nil {
		return noReadings(loc, lang, true), nil
	}

	var (
		segments []string
		delta    *float64
		badge    string
	)
	switch {
	case r1 != nil && r2 != nil:
		d := (r2.LevelM - r1.LevelM) / float64(r2.Year-r1.Year)
		delta = &d
		segments = append(segments, i18n.Sprintf(lang, "answer.compare.years",
			loc.Name(), r1.LevelM, r1.Year, r2.LevelM, r2.Year, d))
		badge = r2.Stage
		if r1.Year > r2.Year {
			badge = r1.Stage
		}
	case r1 != nil:
		segments = append(segments,
			i18n.Sprintf(lang, "answer.stage", loc.Name(), i18n.StageName(lang, r1.Stage), r1.Year, r1.LevelM),
			i18n.Sprintf(lang, "answer.compare.missing", loc.Name(), y2))
		badge = r1.Stage
	default:
		segments = append(segments,
			i18n.Sprintf(lang, "answer.stage", loc.Name(), i18n.StageName(lang, r2.Stage), r2.Year, r2.LevelM),
			i18n.Sprintf(lang, "answer.compare.missing", loc.Name(), y1))
		badge = r2.Stage
	}

	rows := make([][]string, 0, 2)
	var citations []string
	for _, pair := range []struct {
		year int
		rd   *store.Reading
	}{{y1, r1}, {y2, r2}} {
		if pair.rd == nil {
			rows = append(rows, []string{strconv.Itoa(pair.year), missingCell, missingCell})
			continue
		}
		rows = append(rows, []string{
			strconv.Itoa(pair.year), fmtLevel(pair.rd.LevelM), i18n.StageName(lang, pair.rd.Stage),
		})
		citations = append(citations, yearCitation(p.store.Source(), pair.year))
	}

	return &retrieval{
		segments:  segments,
		headers:   yearCompareHeaders(lang),
		rows:      rows,
		stage:     badge,
		delta:     delta,
		citations: dedupSort(citations),
	}, nil
}

func (p *Pipeline) retrieveDefinition(query, lang string) *retrieval {
	hits := p.corpus.Search(query, p.topK)
	if len(hits) == 0 {
		return &retrieval{
			segments:     []string{i18n.T(lang, "answer.definition.none")},
			insufficient: true,
		}
	}

	segments := make([]string, 0, len(hits)+1)
	segments = append(segments, i18n.T(lang, "answer.definition.intro"))
	citations := make([]string, 0, len(hits))
	for _, h := range hits {
		segments = append(segments, h.Text)
		citations = append(citations, "Doc: "+h.Source)
	}

	return &retrieval{segments: segments, citations: dedupSort(citations)}
}

func (p *Pipeline) readingOrNil(ctx context.Context, loc store.Location, year int) (*store.Reading, error) {
	rd, err := p.store.ReadingAt(ctx, loc, year)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading for %s in %d: %w", loc.Name(), year, err)
	}
	return rd, nil
}

func unknownLocation(lang string) *retrieval {
	return &retrieval{
		segments:     []string{i18n.T(lang, "answer.insufficient.generic")},
		insufficient: true,
	}
}

func noReadings(loc store.Location, lang string, bounded bool) *retrieval {
	key := "answer.insufficient"
	if bounded {
		key = "answer.datagap"
	}
	return &retrieval{
		segments:     []string{i18n.Sprintf(lang, key, loc.Name())},
		insufficient: true,
	}
}

func needTwo(lang string) *retrieval {
	return &retrieval{
		segments:     []string{i18n.T(lang, "answer.compare.need_two")},
		insufficient: true,
	}
}

func deltaSegment(lang string, delta float64) string {
	switch {
	case delta > flatThreshold:
		return i18n.Sprintf(lang, "answer.trend.delta.decline", delta)
	case delta < -flatThreshold:
		return i18n.Sprintf(lang, "answer.trend.delta.recover", -delta)
	default:
		return i18n.T(lang, "answer.trend.delta.flat")
	}
}

func trendHeaders(lang string) []string {
	return []string{i18n.T(lang, "table.year"), i18n.T(lang, "table.level")}
}

func compareHeaders(lang string) []string {
	return []string{
		i18n.T(lang, "table.location"), i18n.T(lang, "table.year"),
		i18n.T(lang, "table.level"), i18n.T(lang, "table.stage"),
	}
}

func yearCompareHeaders(lang string) []string {
	return []string{i18n.T(lang, "table.year"), i18n.T(lang, "table.level"), i18n.T(lang, "table.stage")}
}

func yearCitation(src string, year int) string {
	return fmt.Sprintf("Source: %s; Year: %d", src, year)
}

func rangeCitation(src string, from, to int) string {
	return fmt.Sprintf("Source: %s; Years: %d–%d", src, from, to)
}

func fmtLevel(l float64) string { return strconv.FormatFloat(l, 'f', 1, 64) }

func yearBounds(years []int) (from, to int) {
	switch len(years) {
	case 0:
		return 0, 0
	case 1:
		return years[0], 0
	default:
		return slices.Min(years), slices.Max(years)
	}
}

func distinctYears(years []int) []int {
	var out []int
	for _, y := range years {
		if !slices.Contains(out, y) {
			out = append(out, y)
		}
	}
	return out
}

func dedupSort(cites []string) []string {
	if len(cites) == 0 {
		return nil
	}
	slices.Sort(cites)
	return slices.Compact(cites)
}

// markdownTable renders the table for the completion prompt. Presenters
// render their own views from the structured rows.
func markdownTable(headers []string, rows [][]string) string {
	if len(headers) == 0 || len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.Join(headers, " | "))
	b.WriteByte('\n')
	seps := make([]string, len(headers))
	for i, h := range headers {
		seps[i] = strings.Repeat("-", max(3, utf8.RuneCountInString(h)))
	}
	b.WriteString(strings.Join(seps, "|"))
	for _, row := range rows {
		b.WriteByte('\n')
		b.WriteString(strings.Join(row, " | "))
	}
	return b.String()
}
