package world

import "sort"

// Top projects the scoreboard: the n highest-scoring players, score
// descending, ties broken by ascending id. Pure and cheap enough to call
// every frame.
//
// The composite order is encoded in a single comparator rather than two
// successive sorts: sort.Slice gives no stability guarantee, so the two-pass
// stable-sort trick would be unsound here.
func Top(players []Player, n int) []Player {
	ranked := make([]Player, len(players))
	copy(ranked, players)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
