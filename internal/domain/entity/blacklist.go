package entity

import "sort"

// Blacklist неизменяемый набор категорий, которые нужно цензурировать в рамках одного запроса.
type Blacklist struct {
	labels map[string]struct{}
}

// NewBlacklist создаёт набор категорий, пустые строки и дубликаты отбрасываются.
func NewBlacklist(labels ...string) Blacklist {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if l == "" {
			continue
		}
		set[l] = struct{}{}
	}
	return Blacklist{labels: set}
}

// Contains сообщает, входит ли категория в набор.
func (b Blacklist) Contains(label string) bool {
	_, ok := b.labels[label]
	return ok
}

// Len количество категорий.
func (b Blacklist) Len() int {
	return len(b.labels)
}

// Empty сообщает, что набор пуст.
func (b Blacklist) Empty() bool {
	return len(b.labels) == 0
}

// Labels возвращает категории в отсортированном порядке.
func (b Blacklist) Labels() []string {
	out := make([]string, 0, len(b.labels))
	for l := range b.labels {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
