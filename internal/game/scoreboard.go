package game

import (
	"sort"

	"quizhub/internal/domain"
)

// buildScoreboard ranks players by score descending. Ties keep join order,
// which the stable sort preserves because the input arrives in that order.
// Ranks are 1-based and sequential.
func buildScoreboard(players []*Player) []domain.ScoreboardEntry {
	sorted := make([]*Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	entries := make([]domain.ScoreboardEntry, len(sorted))
	for i, p := range sorted {
		entries[i] = domain.ScoreboardEntry{Rank: i + 1, Nickname: p.Nickname, Score: p.Score}
	}
	return entries
}

// playerScoreboardLocked returns standings for competitors only; the host is
// a facilitator and never appears in rankings. Callers must hold s.mu.
func (s *Session) playerScoreboardLocked() []domain.ScoreboardEntry {
	return buildScoreboard(s.competitorsLocked())
}

// competitorsLocked returns non-host players in join order.
func (s *Session) competitorsLocked() []*Player {
	players := make([]*Player, 0, len(s.players))
	for id, p := range s.players {
		if id == s.hostID {
			continue
		}
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].seq < players[j].seq })
	return players
}
