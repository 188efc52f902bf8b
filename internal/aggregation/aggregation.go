// Package aggregation сворачивает интервалы в сгруппированные суммы для графиков и отчетов.
//
// Aggregate - чистый редьюсер: фильтрация выполняется вызывающей стороной (см. Filter).
// Календарные корзины считаются в часовом поясе Options.Location, по умолчанию UTC.
// Неделя - ISO-8601, начинается с понедельника.
package aggregation

import (
	"sort"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/duration"
)

const (
	UnknownProject = "Unknown Project"
	UnknownTask    = "Unknown Task"
)

type Bucket struct {
	Key     string
	Label   string
	Seconds int64
	// Hours - Seconds, округленные до ближайшего целого часа
	Hours int64
}

type Options struct {
	Location *time.Location
	// Sort включает стабильный порядок; иначе корзины идут в порядке первого появления
	Sort bool
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// Aggregate группирует записи и возвращает упорядоченные корзины
func Aggregate(
	entries []*domain.TimeEntry,
	tasks []*domain.Task,
	projects []*domain.Project,
	groupBy GroupBy,
	opts Options,
) ([]Bucket, error) {
	if !groupBy.Valid() {
		return nil, domain.NewInvalidInputError("unknown group by %q", groupBy)
	}

	taskByID := make(map[string]*domain.Task, len(tasks))
	for _, t := range tasks {
		taskByID[t.ID] = t
	}
	projectByID := make(map[string]*domain.Project, len(projects))
	for _, p := range projects {
		projectByID[p.ID] = p
	}

	acc := newAccumulator()
	loc := opts.location()

	for _, e := range entries {
		secs := duration.EntrySeconds(e)

		switch {
		case groupBy.isCalendar():
			start := e.StartTime.In(loc)
			key := calendarKey(start, groupBy)
			acc.add(key, secs, func() string { return calendarLabel(start, groupBy) })

		case groupBy == GroupByTask:
			acc.add(e.TaskID, secs, nil)

		case groupBy == GroupByProject:
			task, ok := taskByID[e.TaskID]
			if !ok {
				// запись нельзя отнести к неизвестному проекту
				continue
			}
			acc.add(task.ProjectID, secs, nil)
		}
	}

	buckets := acc.buckets()
	for i := range buckets {
		switch groupBy {
		case GroupByTask:
			buckets[i].Label = UnknownTask
			if t, ok := taskByID[buckets[i].Key]; ok {
				buckets[i].Label = t.Title
			}
		case GroupByProject:
			buckets[i].Label = UnknownProject
			if p, ok := projectByID[buckets[i].Key]; ok {
				buckets[i].Label = p.Name
			}
		}
	}

	if opts.Sort {
		sortBuckets(buckets, groupBy)
	}

	return buckets, nil
}

// TotalSeconds суммирует корзины
func TotalSeconds(buckets []Bucket) int64 {
	var total int64
	for _, b := range buckets {
		total += b.Seconds
	}
	return total
}

func sortBuckets(buckets []Bucket, groupBy GroupBy) {
	if groupBy.isCalendar() {
		sort.SliceStable(buckets, func(i, j int) bool {
			return buckets[i].Key < buckets[j].Key
		})
		return
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].Label != buckets[j].Label {
			return buckets[i].Label < buckets[j].Label
		}
		return buckets[i].Key < buckets[j].Key
	})
}

type accumulator struct {
	order  []string
	totals map[string]int64
	labels map[string]string
}

func newAccumulator() *accumulator {
	return &accumulator{
		totals: make(map[string]int64),
		labels: make(map[string]string),
	}
}

func (a *accumulator) add(key string, secs int64, label func() string) {
	if _, seen := a.totals[key]; !seen {
		a.order = append(a.order, key)
		if label != nil {
			a.labels[key] = label()
		}
	}
	a.totals[key] += secs
}

func (a *accumulator) buckets() []Bucket {
	result := make([]Bucket, 0, len(a.order))
	for _, key := range a.order {
		secs := a.totals[key]
		result = append(result, Bucket{
			Key:     key,
			Label:   a.labels[key],
			Seconds: secs,
			Hours:   duration.Hours(secs),
		})
	}
	return result
}
