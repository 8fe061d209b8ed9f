package models

// Tip is a quick maintenance hint served by the backend.
type Tip struct {
	ID   int    `json:"id" yaml:"id"`
	Dica string `json:"dica" yaml:"dica"`
}

// MergeTips concatenates tip lists keeping the first occurrence of each id.
func MergeTips(lists ...[]Tip) []Tip {
	seen := make(map[int]bool)
	out := []Tip{}
	for _, l := range lists {
		for _, t := range l {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			out = append(out, t)
		}
	}
	return out
}
