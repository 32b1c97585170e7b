// Package rating — чистый ELO-калькулятор без побочных эффектов.
package rating

import "math"

// DefaultK — канонический K-фактор: максимальный сдвиг рейтинга за матч.
const DefaultK = 32

// Floor — рейтинг ниже этой отметки не опускается.
const Floor = 100

// ExpectedScore — ожидаемый счёт игрока a против игрока b.
func ExpectedScore(a, b int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(b-a)/400.0))
}

// Delta — изменение рейтинга при фактическом счёте actual (1 победа,
// 0 поражение). Округляется независимо для каждой стороны, поэтому
// суммы дельт победителя и проигравшего могут расходиться на 1.
func Delta(current, opponent int, actual float64, k int) int {
	return int(math.Round(float64(k) * (actual - ExpectedScore(current, opponent))))
}

// Apply прибавляет дельту с учётом нижней границы рейтинга.
func Apply(current, delta int) int {
	next := current + delta
	if next < Floor {
		return Floor
	}
	return next
}

// PairResult — дельты и новые рейтинги обеих сторон одного матча.
type PairResult struct {
	WinnerDelta  int
	LoserDelta   int
	WinnerRating int
	LoserRating  int
}

// Pair считает обе дельты независимо по комплементарным ожидаемым
// счетам, как того требует протокол отката: сохранённые дельты должны
// восстанавливать дорейтинговые значения вычитанием.
func Pair(winnerRating, loserRating, k int) PairResult {
	winnerDelta := Delta(winnerRating, loserRating, 1, k)
	loserDelta := Delta(loserRating, winnerRating, 0, k)
	return PairResult{
		WinnerDelta:  winnerDelta,
		LoserDelta:   loserDelta,
		WinnerRating: Apply(winnerRating, winnerDelta),
		LoserRating:  Apply(loserRating, loserDelta),
	}
}
