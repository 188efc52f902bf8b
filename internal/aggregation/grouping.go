package aggregation

import (
	"fmt"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
)

type GroupBy string

const (
	GroupByDay     GroupBy = "day"
	GroupByWeek    GroupBy = "week"
	GroupByMonth   GroupBy = "month"
	GroupByProject GroupBy = "project"
	GroupByTask    GroupBy = "task"
)

func (g GroupBy) Valid() bool {
	switch g {
	case GroupByDay, GroupByWeek, GroupByMonth, GroupByProject, GroupByTask:
		return true
	}
	return false
}

func (g GroupBy) isCalendar() bool {
	return g == GroupByDay || g == GroupByWeek || g == GroupByMonth
}

// ParseGroupBy разбирает значение из запроса
func ParseGroupBy(s string) (GroupBy, error) {
	g := GroupBy(s)
	if !g.Valid() {
		return "", domain.NewInvalidInputError("unknown group by %q", s)
	}
	return g, nil
}

// WeekStart возвращает понедельник недели, содержащей t, в полночь
func WeekStart(t time.Time) time.Time {
	offset := int(t.Weekday())
	if offset == 0 {
		offset = 7
	}
	y, m, d := t.AddDate(0, 0, -offset+1).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// calendarKey - ключ корзины; ключи одного типа сортируются лексикографически по времени
func calendarKey(t time.Time, groupBy GroupBy) string {
	switch groupBy {
	case GroupByDay:
		return t.Format("2006-01-02")
	case GroupByWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case GroupByMonth:
		return t.Format("2006-01")
	}
	return ""
}

func calendarLabel(t time.Time, groupBy GroupBy) string {
	switch groupBy {
	case GroupByDay:
		return t.Format("Mon, 02 Jan 2006")
	case GroupByWeek:
		start := WeekStart(t)
		end := start.AddDate(0, 0, 6)
		return fmt.Sprintf("%s - %s", start.Format("Jan 02"), end.Format("Jan 02, 2006"))
	case GroupByMonth:
		return t.Format("January 2006")
	}
	return ""
}
