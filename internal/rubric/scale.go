package rubric

import "math"

// ScaleMarks rescales auto-extracted key-point marks so they sum to a
// teacher-assigned total. Each mark is scaled proportionally and rounded to
// two decimals; the rounding remainder is folded into the last key point so
// the rescaled set sums to the total exactly.
//
// A non-positive total or an empty/zero-mark key-point set returns the input
// unchanged.
func ScaleMarks(kps []KeyPoint, total float64) []KeyPoint {
	if total <= 0 || len(kps) == 0 {
		return kps
	}
	sum := 0.0
	for _, kp := range kps {
		sum += kp.Marks
	}
	if sum <= 0 || math.Abs(sum-total) < 0.001 {
		return kps
	}

	out := make([]KeyPoint, len(kps))
	copy(out, kps)
	factor := total / sum
	assigned := 0.0
	for i := range out[:len(out)-1] {
		out[i].Marks = round2(out[i].Marks * factor)
		assigned += out[i].Marks
	}
	out[len(out)-1].Marks = round2(total - assigned)
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
