package evolve

// selectParent runs one tournament: TournamentSize uniform draws with
// replacement, the fittest drawn individual wins. Earlier draws win ties.
func (ga *GeneticAlgorithm) selectParent() *Individual {
	var best *Individual
	for i := 0; i < ga.cfg.TournamentSize; i++ {
		cand := ga.pop.Get(ga.rng.IntN(ga.pop.Size()))
		if best == nil || cand.fitness > best.fitness {
			best = cand
		}
	}
	return best
}
