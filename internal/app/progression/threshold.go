package progression

import (
	"sort"

	"github.com/vigor-app/vigor/internal/domain"
)

// DetectCrossings returns one crossing for each threshold t where
// previous < t <= current. Already-crossed and not-yet-reached thresholds
// are omitted. Thresholds need not arrive sorted; output is ascending.
func DetectCrossings(previous, current int64, thresholds []int64, kind domain.CrossingKind, dimension string) []domain.ThresholdCrossing {
	if current <= previous || len(thresholds) == 0 {
		return nil
	}
	sorted := append([]int64(nil), thresholds...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var crossings []domain.ThresholdCrossing
	for _, t := range sorted {
		if t > current {
			break
		}
		if previous < t {
			crossings = append(crossings, domain.ThresholdCrossing{
				Kind:        kind,
				Dimension:   dimension,
				Threshold:   t,
				JustCrossed: true,
			})
		}
	}
	return crossings
}
