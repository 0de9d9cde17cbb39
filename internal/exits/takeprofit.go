package exits

import (
	"math"
	"sort"

	"github.com/quantlab/crypto-paper-bot/internal/domain"
)

// closePercentTolerance is how far the ladder's close percents may sum
// away from 100 before validation rejects it.
const closePercentTolerance = 0.01

// SingleTarget builds a one-level ladder that closes the full quantity
// at the given distance from entry.
func SingleTarget(entry float64, side domain.Side, percent float64) []domain.TakeProfitLevel {
	return []domain.TakeProfitLevel{{
		Price:        entry * (1 + side.Sign()*percent/100),
		ClosePercent: 100,
	}}
}

// LadderFromPercents builds a multi-level ladder from profit distances
// and matching close percents. Levels come out sorted in trigger order:
// ascending price for longs, descending for shorts.
func LadderFromPercents(entry float64, side domain.Side, percents, closePercents []float64) []domain.TakeProfitLevel {
	n := len(percents)
	if len(closePercents) < n {
		n = len(closePercents)
	}
	levels := make([]domain.TakeProfitLevel, 0, n)
	for i := 0; i < n; i++ {
		levels = append(levels, domain.TakeProfitLevel{
			Price:        entry * (1 + side.Sign()*percents[i]/100),
			ClosePercent: closePercents[i],
		})
	}
	SortLevels(side, levels)
	return levels
}

// SortLevels orders a ladder in trigger order for the side.
func SortLevels(side domain.Side, levels []domain.TakeProfitLevel) {
	sort.Slice(levels, func(i, j int) bool {
		if side == domain.SideLong {
			return levels[i].Price < levels[j].Price
		}
		return levels[i].Price > levels[j].Price
	})
}

// NextTriggeredLevel returns the index of the first unhit level the
// price has crossed, walking the ladder in trigger order. The second
// return is false when nothing triggered.
func NextTriggeredLevel(pos *domain.Position, price float64) (int, bool) {
	for i := range pos.TakeProfits {
		level := &pos.TakeProfits[i]
		if level.Hit {
			continue
		}
		if levelTriggered(pos.Side, level.Price, price) {
			return i, true
		}
		// Ladder is sorted in trigger order; past the first unhit,
		// untriggered level nothing further can have triggered.
		return 0, false
	}
	return 0, false
}

func levelTriggered(side domain.Side, levelPrice, price float64) bool {
	if side == domain.SideLong {
		return price >= levelPrice
	}
	return price <= levelPrice
}

// SumClosePercent totals the ladder's close percents.
func SumClosePercent(levels []domain.TakeProfitLevel) float64 {
	sum := 0.0
	for _, l := range levels {
		sum += l.ClosePercent
	}
	return sum
}

// closePercentsSumTo100 checks the 100% invariant within tolerance.
func closePercentsSumTo100(levels []domain.TakeProfitLevel) bool {
	return math.Abs(SumClosePercent(levels)-100) <= closePercentTolerance
}
