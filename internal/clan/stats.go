package clan

// Stats are totals over a clan's resolved members.
type Stats struct {
	Members       int
	WeightedKills float64
	Deaths        int
	RivalKills    int
	NeutralKills  int
	CivilianKills int
}

// KDR returns total weighted kills over total deaths for the whole clan.
// An empty clan has a KDR of 0. With no deaths the KDR is the weighted kill total.
func (s Stats) KDR() float64 {
	if s.Members == 0 {
		return 0
	}
	if s.Deaths == 0 {
		return s.WeightedKills
	}
	return s.WeightedKills / float64(s.Deaths)
}

// AverageWeightedKills returns the truncated per-member weighted kills.
func (s Stats) AverageWeightedKills() int {
	if s.Members == 0 {
		return 0
	}
	return int(s.WeightedKills) / s.Members
}

// Stats computes aggregate statistics for the clan in a single pass over its members.
func (m *Manager) Stats(tag string) (Stats, error) {
	m.popMu.RLock()
	defer m.popMu.RUnlock()

	c, err := m.Clan(tag)
	if err != nil {
		return Stats{}, err
	}

	w := m.settings.KillWeights()
	var s Stats
	for _, p := range m.resolve(c) {
		p.mu.RLock()
		s.Members++
		s.RivalKills += p.rivalKills
		s.NeutralKills += p.neutralKills
		s.CivilianKills += p.civilianKills
		s.Deaths += p.deaths
		s.WeightedKills += p.weightedKillsLocked(w)
		p.mu.RUnlock()
	}
	return s, nil
}
