package allocator

import "github.com/skyfreight/cargoplan/core/model"

// exhaustiveLowLimit bounds the subset enumeration: 2^12 subsets at most.
// Larger Low waitlists fall back to the greedy fill, which keeps the
// allocator polynomial on big flights.
const exhaustiveLowLimit = 12

// utilizationBonusFactor rewards subsets that use capacity well.
const utilizationBonusFactor = 1000

// bestLowSubset picks the Low-priority subset maximizing revenue-density sum
// plus a utilization bonus, within the remaining weight/volume budget.
func bestLowSubset(candidates []model.FlightCargoCandidate, maxWeight, maxVolume float64) []model.FlightCargoCandidate {
	if len(candidates) == 0 || maxWeight <= 0 || maxVolume <= 0 {
		return nil
	}
	if len(candidates) > exhaustiveLowLimit {
		return greedyLowFill(candidates, maxWeight, maxVolume)
	}

	var best []model.FlightCargoCandidate
	bestScore := -1.0
	for mask := 0; mask < 1<<len(candidates); mask++ {
		var weight, volume, densitySum float64
		feasible := true
		for i, c := range candidates {
			if mask&(1<<i) == 0 {
				continue
			}
			weight += c.WeightKg
			volume += c.VolumeM3
			densitySum += c.RevenueDensity
			if weight > maxWeight || volume > maxVolume {
				feasible = false
				break
			}
		}
		if !feasible {
			continue
		}
		score := densitySum + subsetUtilizationBonus(weight, volume, maxWeight, maxVolume)
		if score > bestScore {
			bestScore = score
			best = subsetOf(candidates, mask)
		}
	}
	return best
}

// greedyLowFill admits candidates by revenue density descending while they
// fit. Approximate, but behaviour-preserving for the small waitlists the
// exhaustive path covers.
func greedyLowFill(candidates []model.FlightCargoCandidate, maxWeight, maxVolume float64) []model.FlightCargoCandidate {
	var out []model.FlightCargoCandidate
	remainingWeight, remainingVolume := maxWeight, maxVolume
	for _, c := range sortByDensityDesc(candidates) {
		if c.WeightKg <= remainingWeight && c.VolumeM3 <= remainingVolume {
			out = append(out, c)
			remainingWeight -= c.WeightKg
			remainingVolume -= c.VolumeM3
		}
	}
	return out
}

// subsetUtilizationBonus rewards subsets once both dimensions pass 60%
// utilization of the remaining budget.
func subsetUtilizationBonus(weight, volume, maxWeight, maxVolume float64) float64 {
	weightUtil := weight / maxWeight
	volumeUtil := volume / maxVolume
	if weightUtil < 0.6 || volumeUtil < 0.6 {
		return 0
	}
	if weightUtil < volumeUtil {
		return weightUtil * utilizationBonusFactor
	}
	return volumeUtil * utilizationBonusFactor
}

func subsetOf(candidates []model.FlightCargoCandidate, mask int) []model.FlightCargoCandidate {
	var out []model.FlightCargoCandidate
	for i, c := range candidates {
		if mask&(1<<i) != 0 {
			out = append(out, c)
		}
	}
	return out
}
