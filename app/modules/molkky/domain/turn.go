package molkkydomain

// NextThrowerIndex returns the index, within players (join order), of the
// player whose turn it is. Eliminated players are skipped. It returns -1 when
// nobody can throw. The result is advisory and never gates a write.
func NextThrowerIndex(players []Player, throwCount int) int {
	active := make([]int, 0, len(players))
	for i, p := range players {
		if !p.Eliminated {
			active = append(active, i)
		}
	}
	if len(active) == 0 || throwCount < 0 {
		return -1
	}
	return active[throwCount%len(active)]
}
