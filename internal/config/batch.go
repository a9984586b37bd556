package config

import "time"

// BoardBatch returns the boards to poll on day. Lists longer than size
// are rotated by day of year with wrap-around, so every board comes up
// within a few days. size <= 0 returns the whole list.
func BoardBatch(boards []string, size int, day time.Time) []string {
	if size <= 0 || len(boards) <= size {
		return boards
	}
	offset := (day.YearDay() * size) % len(boards)
	out := make([]string, 0, size)
	for i := 0; i < size; i++ {
		out = append(out, boards[(offset+i)%len(boards)])
	}
	return out
}
