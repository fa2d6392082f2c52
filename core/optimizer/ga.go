// Package optimizer searches route-choice space with a genetic algorithm.
// Fitness is the simulated plan margin, which already prices rollovers and
// emergency assignments, so the search feels the true cost of the priority
// guarantee.
package optimizer

import (
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/skyfreight/cargoplan/core/logger"
	"github.com/skyfreight/cargoplan/core/model"
	"github.com/skyfreight/cargoplan/core/routes"
	"github.com/skyfreight/cargoplan/core/simulate"
)

// Config holds the GA parameters.
type Config struct {
	PopulationSize int     `json:"population_size" yaml:"population_size"`
	Generations    int     `json:"generations" yaml:"generations"`
	CrossoverRate  float64 `json:"crossover_rate" yaml:"crossover_rate"`
	MutationRate   float64 `json:"mutation_rate" yaml:"mutation_rate"`
	TournamentSize int     `json:"tournament_size" yaml:"tournament_size"`
	// Workers bounds parallel fitness evaluation; 0 means GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`
}

// SetDefaults applies the standard parameters where fields are unset.
func (c *Config) SetDefaults() {
	if c.PopulationSize <= 0 {
		c.PopulationSize = 80
	}
	if c.Generations <= 0 {
		c.Generations = 120
	}
	if c.CrossoverRate <= 0 {
		c.CrossoverRate = 0.8
	}
	if c.MutationRate <= 0 {
		c.MutationRate = 0.15
	}
	if c.TournamentSize <= 0 {
		c.TournamentSize = 3
	}
}

// Optimizer evolves genomes against a fixed catalog. One seeded generator
// drives initialization, crossover, mutation and tournament sampling, so the
// same seed and inputs reproduce the plan bit for bit.
type Optimizer struct {
	Config Config
	Sim    simulate.Simulator
	Log    logger.Logger
}

// Run builds the route catalog and evolves the population, returning the best
// plan observed across all generations.
func (o Optimizer) Run(cargoSet map[string]model.Cargo, flights map[string]model.Flight, rules []model.ConnectionRule, seed int64) model.Plan {
	cfg := o.Config
	cfg.SetDefaults()
	rng := rand.New(rand.NewSource(seed))

	catalog := routes.NewBuilder(flights, rules).Build(cargoSet)
	cargoIDs := make([]string, 0, len(catalog))
	for id := range catalog {
		cargoIDs = append(cargoIDs, id)
	}
	sort.Strings(cargoIDs)

	if len(cargoIDs) == 0 {
		return model.Plan{Assignments: map[string]model.CargoAssignment{}, FlightLoads: map[string]model.FlightSelection{}}
	}

	population := make([][]int, cfg.PopulationSize)
	for i := range population {
		genes := make([]int, len(cargoIDs))
		for j, id := range cargoIDs {
			genes[j] = rng.Intn(len(catalog[id]))
		}
		population[i] = genes
	}

	var bestPlan model.Plan
	bestFitness := math.Inf(-1)

	for gen := 0; gen < cfg.Generations; gen++ {
		plans := o.evaluate(population, cargoIDs, cargoSet, catalog, flights, cfg.Workers)

		fitnesses := make([]float64, len(plans))
		for i, p := range plans {
			fitnesses[i] = p.TotalMargin
			if p.TotalMargin > bestFitness {
				bestFitness = p.TotalMargin
				bestPlan = p
			}
		}
		if o.Log != nil && gen%20 == 0 {
			o.Log.Debugf("generation %d best margin %.2f", gen, bestFitness)
		}

		next := make([][]int, 0, cfg.PopulationSize)
		next = append(next, cloneGenome(population[fittestIndex(fitnesses)]))
		for len(next) < cfg.PopulationSize {
			parent1 := tournamentSelect(rng, population, fitnesses, cfg.TournamentSize)
			parent2 := tournamentSelect(rng, population, fitnesses, cfg.TournamentSize)
			child1, child2 := crossover(rng, parent1, parent2, cfg.CrossoverRate)
			mutate(rng, child1, catalog, cargoIDs, cfg.MutationRate)
			mutate(rng, child2, catalog, cargoIDs, cfg.MutationRate)
			next = append(next, child1)
			if len(next) < cfg.PopulationSize {
				next = append(next, child2)
			}
		}
		population = next
	}

	if math.IsInf(bestFitness, -1) {
		bestPlan = o.Sim.Run(cargoIDs, cargoSet, catalog, flights, population[0])
	}
	return bestPlan
}

// evaluate runs the simulator over the population. Genome evaluations are
// independent, so they fan out across workers; results land at their genome
// index, keeping the generation deterministic regardless of scheduling.
func (o Optimizer) evaluate(population [][]int, cargoIDs []string, cargoSet map[string]model.Cargo, catalog map[string][]model.RouteOption, flights map[string]model.Flight, workers int) []model.Plan {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	plans := make([]model.Plan, len(population))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, genome := range population {
		g.Go(func() error {
			plans[i] = o.Sim.Run(cargoIDs, cargoSet, catalog, flights, genome)
			return nil
		})
	}
	// Evaluations never fail; infeasibility degrades to statuses inside the
	// plan.
	_ = g.Wait()
	return plans
}

// tournamentSelect returns a copy of the fittest genome among a random sample
// of distinct contenders.
func tournamentSelect(rng *rand.Rand, population [][]int, fitnesses []float64, size int) []int {
	if size > len(population) {
		size = len(population)
	}
	best := -1
	for _, idx := range rng.Perm(len(population))[:size] {
		if best == -1 || fitnesses[idx] > fitnesses[best] {
			best = idx
		}
	}
	return cloneGenome(population[best])
}

// crossover performs single-point crossover with the given probability.
func crossover(rng *rand.Rand, parent1, parent2 []int, rate float64) ([]int, []int) {
	if len(parent1) <= 1 || rng.Float64() >= rate {
		return cloneGenome(parent1), cloneGenome(parent2)
	}
	point := 1 + rng.Intn(len(parent1)-1)
	child1 := append(append([]int{}, parent1[:point]...), parent2[point:]...)
	child2 := append(append([]int{}, parent2[:point]...), parent1[point:]...)
	return child1, child2
}

// mutate resamples each gene independently with the given probability.
func mutate(rng *rand.Rand, genome []int, catalog map[string][]model.RouteOption, cargoIDs []string, rate float64) {
	for i, id := range cargoIDs {
		if rng.Float64() < rate {
			genome[i] = rng.Intn(len(catalog[id]))
		}
	}
}

func fittestIndex(fitnesses []float64) int {
	best := 0
	for i, f := range fitnesses {
		if f > fitnesses[best] {
			best = i
		}
	}
	return best
}

func cloneGenome(g []int) []int {
	return append([]int{}, g...)
}
