package evolve

// crossover builds an unscored child by taking every gene from a or b with
// one coin flip per position. Genes are cloned, never shared with a parent.
func (ga *GeneticAlgorithm) crossover(a, b *Individual) *Individual {
	child := NewIndividual(ga.layout, ga.rng, false)
	for g := range child.genes {
		src := b
		if ga.rng.Float64() < ga.cfg.CrossoverRate {
			src = a
		}
		child.genes[g] = src.genes[g].Clone()
	}
	return child
}
