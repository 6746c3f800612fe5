package entity

import (
	"fmt"
	"sort"
)

// WordTimestamp слово из транскрипции с временными метками в секундах.
type WordTimestamp struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ProfanityInterval отрезок аудио в секундах, который нужно заглушить.
type ProfanityInterval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration длительность отрезка в секундах.
func (p ProfanityInterval) Duration() float64 {
	return p.End - p.Start
}

func (p ProfanityInterval) String() string {
	return fmt.Sprintf("[%.3f, %.3f)", p.Start, p.End)
}

// NormalizeIntervals упорядочивает отрезки по началу, обрезает их по [0, total],
// отбрасывает вырожденные и сливает пересекающиеся. total <= 0 отключает обрезку сверху.
func NormalizeIntervals(intervals []ProfanityInterval, total float64) []ProfanityInterval {
	cleaned := make([]ProfanityInterval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Start < 0 {
			iv.Start = 0
		}
		if total > 0 && iv.End > total {
			iv.End = total
		}
		if iv.End <= iv.Start {
			continue
		}
		cleaned = append(cleaned, iv)
	}
	sort.Slice(cleaned, func(i, j int) bool { return cleaned[i].Start < cleaned[j].Start })

	merged := cleaned[:0]
	for _, iv := range cleaned {
		if n := len(merged); n > 0 && iv.Start <= merged[n-1].End {
			if iv.End > merged[n-1].End {
				merged[n-1].End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
