package guardrail

import (
	"sort"
	"strings"
)

// Entity is a detected span of interest in text. Start and End are
// half-open byte offsets into the text the detection ran against.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// SortByStartDesc orders entities by start offset descending, so that
// replacements can be applied right-to-left without invalidating the
// offsets of spans not yet replaced.
func SortByStartDesc(entities []Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Start > entities[j].Start
	})
}

// ReplaceSpans rewrites text by splicing replacement over each entity
// span, applying spans in descending start order. Entities with offsets
// outside the text are skipped. Overlapping spans are not merged; each is
// applied in order, which can compound replacements. The input slice is
// reordered in place by the descending sort.
func ReplaceSpans(text string, entities []Entity, replacement string) string {
	if len(entities) == 0 {
		return text
	}

	SortByStartDesc(entities)

	var b strings.Builder
	out := text
	for _, e := range entities {
		if e.Start < 0 || e.End > len(out) || e.Start >= e.End {
			continue
		}
		b.Reset()
		b.Grow(len(out) - (e.End - e.Start) + len(replacement))
		b.WriteString(out[:e.Start])
		b.WriteString(replacement)
		b.WriteString(out[e.End:])
		out = b.String()
	}
	return out
}
