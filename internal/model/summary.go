package model

// Summary aggregates a set of classifications. Failed records are counted
// separately and never appear in ByCategory.
type Summary struct {
	ByCategory map[Category]int
	ByOrigin   map[Origin]int
	Total      int
	Failed     int
}

// Summarize builds a Summary over the given classifications.
func Summarize(classifications []Classification) Summary {
	s := Summary{
		ByCategory: make(map[Category]int, len(Categories())),
		ByOrigin:   make(map[Origin]int),
	}
	for _, cat := range Categories() {
		s.ByCategory[cat] = 0
	}

	for _, c := range classifications {
		s.Total++
		s.ByOrigin[c.Origin]++
		if c.Failed() {
			s.Failed++
			continue
		}
		s.ByCategory[c.Category]++
	}

	return s
}
