package reconciler

import (
	"sort"

	"github.com/bagdasarian/time-tracker/internal/domain"
)

// DeriveActive выбирает активную запись из полного списка записей пользователя.
// Если незакрытых записей несколько, активной считается начатая последней,
// остальные возвращаются как аномалии, от новых к старым.
func DeriveActive(entries []*domain.TimeEntry) (*domain.TimeEntry, []*domain.TimeEntry) {
	var active *domain.TimeEntry
	var anomalies []*domain.TimeEntry

	for _, e := range entries {
		if e == nil || !e.IsActive() {
			continue
		}
		if active == nil {
			active = e
			continue
		}
		if newerThan(e, active) {
			anomalies = append(anomalies, active)
			active = e
		} else {
			anomalies = append(anomalies, e)
		}
	}

	sortNewestFirst(anomalies)
	return active, anomalies
}

// newerThan сравнивает по start_time, при равенстве по created_at, затем по id
func newerThan(a, b *domain.TimeEntry) bool {
	if !a.StartTime.Equal(b.StartTime) {
		return a.StartTime.After(b.StartTime)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func sortNewestFirst(entries []*domain.TimeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return newerThan(entries[i], entries[j])
	})
}

func entryIDs(entries []*domain.TimeEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}
