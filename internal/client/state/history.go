package state

import (
	"sort"

	"gestion-stock/internal/api"
)

// DayCount is the number of history entries recorded on one day.
type DayCount struct {
	Day   api.LocalDate
	Count int
}

// DailyCounts groups history entries per day, oldest day first.
func DailyCounts(history []api.History) []DayCount {
	byDay := make(map[string]*DayCount)
	for _, h := range history {
		d := h.DateAction.Date()
		key := d.String()
		dc, ok := byDay[key]
		if !ok {
			dc = &DayCount{Day: d}
			byDay[key] = dc
		}
		dc.Count++
	}

	out := make([]DayCount, 0, len(byDay))
	for _, dc := range byDay {
		out = append(out, *dc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}
