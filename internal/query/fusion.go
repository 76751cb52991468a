package query

import "sort"

// rrfK is the Reciprocal Rank Fusion smoothing constant.
const rrfK = 60.0

// mergeKey returns the candidate's canonical identity for fusion and
// dedup: a symbol's stable id when one is known, otherwise its
// path+line-range, otherwise its path alone.
func mergeKey(c Candidate) string {
	if c.SymbolStableID != "" {
		return "sym:" + c.SymbolStableID
	}
	if c.Path != "" && (c.LineStart != 0 || c.LineEnd != 0) {
		return "loc:" + c.Path + ":" + itoa(c.LineStart) + "-" + itoa(c.LineEnd)
	}
	if c.Path != "" {
		return "path:" + c.Path
	}
	return "chan:" + c.Channel
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Fused is one candidate after cross-channel rank fusion, carrying the
// channels it was seen in and its fused RRF score.
type Fused struct {
	Candidate
	FusedScore  float64
	SeenChannels []string
}

// preferOverlay reports whether c should replace f's merged identity
// fields on a merge-key collision: overlay always wins over base,
// regardless of which channel or rank order surfaced each one first.
// Once f already carries an overlay candidate, a later base candidate
// under the same key never displaces it back.
func preferOverlay(f *Fused, c Candidate) bool {
	return c.SourceLayer == layerOverlay && f.SourceLayer != layerOverlay
}

// FuseRanks merges per-channel candidate lists with Reciprocal Rank
// Fusion: each channel is sorted by RawScore descending, then every
// candidate's fused score accumulates 1/(rrfK+rank) per channel it
// appears in, summed across channels it was retrieved by. On a
// merge-key collision between a base and an overlay candidate, the
// overlay candidate's fields are reported (spec's "overlay wins on
// merge-key collision"); candidates from the same layer still merge
// complementary fields (e.g. a symbol hit filling in a file hit's
// missing Symbol) as before.
func FuseRanks(channels ...[]Candidate) []Fused {
	byKey := make(map[string]*Fused)
	order := make([]string, 0)

	for _, candidates := range channels {
		ranked := make([]Candidate, len(candidates))
		copy(ranked, candidates)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].RawScore > ranked[j].RawScore
		})

		for rank, c := range ranked {
			key := mergeKey(c)
			f, ok := byKey[key]
			if !ok {
				f = &Fused{Candidate: c}
				byKey[key] = f
				order = append(order, key)
			}
			f.FusedScore += 1.0 / (rrfK + float64(rank+1))
			f.SeenChannels = append(f.SeenChannels, c.Channel)

			switch {
			case preferOverlay(f, c):
				score, seen := f.FusedScore, f.SeenChannels
				f.Candidate = c
				f.FusedScore, f.SeenChannels = score, seen
			case f.SourceLayer == c.SourceLayer:
				if f.Symbol == nil && c.Symbol != nil {
					f.Symbol = c.Symbol
					f.SymbolStableID = c.SymbolStableID
				}
				if f.Snippet == nil && c.Snippet != nil {
					f.Snippet = c.Snippet
				}
				if f.File == nil && c.File != nil {
					f.File = c.File
				}
				if f.Path == "" {
					f.Path = c.Path
					f.LineStart = c.LineStart
					f.LineEnd = c.LineEnd
				}
			}
			// f already carries an overlay candidate and c is base:
			// c's identity is dropped, but its rank already counted
			// toward FusedScore above.
		}
	}

	out := make([]Fused, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FusedScore > out[j].FusedScore
	})
	return out
}
