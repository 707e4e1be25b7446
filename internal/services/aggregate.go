package services

import "github.com/coffices/backend/internal/models"

// initialAverages seeds a fresh aggregate from the first rating. Only the
// dimensions the rating supplies appear in the map; omitted dimensions are
// absent, not zero.
func initialAverages(scores models.RatingScores) map[string]float64 {
	averages := make(map[string]float64, len(scores))
	for dim, v := range scores {
		averages[dim] = float64(v)
	}
	return averages
}

// foldScores folds one rating into existing running means. For each supplied
// dimension the new mean is (oldMean*oldCount + value) / (oldCount + 1); a
// dimension the rating omits keeps its current mean (its denominator does not
// advance). The returned map is a copy; total is not mutated here.
func foldScores(averages map[string]float64, total int, scores models.RatingScores) map[string]float64 {
	next := make(map[string]float64, len(averages)+len(scores))
	for dim, mean := range averages {
		next[dim] = mean
	}
	for dim, v := range scores {
		old, had := next[dim]
		if !had {
			// First time this dimension is rated for the place. Earlier
			// ratings never contributed to it, so its mean is just the value.
			next[dim] = float64(v)
			continue
		}
		next[dim] = (old*float64(total) + float64(v)) / float64(total+1)
	}
	return next
}

// groupAverages computes the arithmetic mean of each dimension across a full
// rating history. A rating that omits a dimension does not count toward that
// dimension's denominator. Returns the means and the total rating count.
func groupAverages(ratings []*models.Rating) (map[string]float64, int) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range ratings {
		for dim, v := range r.Scores {
			sums[dim] += float64(v)
			counts[dim]++
		}
	}

	averages := make(map[string]float64, len(sums))
	for dim, sum := range sums {
		averages[dim] = sum / float64(counts[dim])
	}
	return averages, len(ratings)
}
