// Package duration содержит чистые функции расчета длительностей и прогресса.
package duration

import (
	"fmt"
	"math"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
)

// DeadlineWindow - за сколько до дедлайна он считается приближающимся
const DeadlineWindow = 72 * time.Hour

// Elapsed возвращает end - start в целых секундах с отбрасыванием дробной части
func Elapsed(start, end time.Time) (int64, error) {
	if end.Before(start) {
		return 0, domain.ErrInvalidRange
	}
	return int64(end.Sub(start) / time.Second), nil
}

// Humanize форматирует секунды как HH:MM:SS без перехода через сутки
func Humanize(seconds int64) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, hours, minutes, secs)
}

// EntrySeconds - вклад одной записи: duration, иначе интервал, иначе 0 для активной
func EntrySeconds(e *domain.TimeEntry) int64 {
	if e == nil {
		return 0
	}
	if e.Duration != nil {
		return *e.Duration
	}
	if e.EndTime == nil {
		return 0
	}
	secs, err := Elapsed(e.StartTime, *e.EndTime)
	if err != nil {
		return 0
	}
	return secs
}

func TotalSeconds(entries []*domain.TimeEntry) int64 {
	var total int64
	for _, e := range entries {
		total += EntrySeconds(e)
	}
	return total
}

// ProgressPercent считает процент выполнения оценки задачи.
// Результат не ограничивается сверху 100: перерасход показывается как есть.
func ProgressPercent(task *domain.Task, entries []*domain.TimeEntry) int {
	if task == nil || task.EstimatedMinutes == nil || *task.EstimatedMinutes <= 0 {
		return 0
	}
	estimated := float64(*task.EstimatedMinutes) * 60
	return int(math.Round(float64(TotalSeconds(entries)) / estimated * 100))
}

// Hours переводит секунды в часы с округлением до ближайшего целого
func Hours(seconds int64) int64 {
	return int64(math.Round(float64(seconds) / 3600))
}

func IsDeadlineApproaching(deadline *time.Time, now time.Time) bool {
	if deadline == nil {
		return false
	}
	return deadline.After(now) && !deadline.After(now.Add(DeadlineWindow))
}

func IsDeadlinePassed(deadline *time.Time, now time.Time) bool {
	if deadline == nil {
		return false
	}
	return deadline.Before(now)
}
