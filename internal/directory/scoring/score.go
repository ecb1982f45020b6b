// Package scoring computes the data completeness score for an institution
// profile. Scoring is a pure function of the profile snapshot plus an image
// count so it can be recomputed inside the same transaction as the write
// that triggered it.
package scoring

import "github.com/campusreach/directory/internal/directory/domain"

// Category point caps. They sum to 100 with the verification bonus, so the
// final clamp only matters if a category is ever added.
const (
	identityMax   = 20
	costMax       = 20
	roomBoardMax  = 20
	admissionsMax = 10
	imagesMax     = 30
	verifiedBonus = 10
)

// Score returns the completeness score in [0, 100] for the given profile
// snapshot and gallery image count.
func Score(inst domain.Institution, imageCount int) int {
	total := 0
	for _, pts := range Breakdown(inst, imageCount) {
		total += pts
	}
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}
	return total
}

// Breakdown returns the per-category points that make up the score. Keys are
// stable and feed the data quality report.
func Breakdown(inst domain.Institution, imageCount int) map[string]int {
	return map[string]int{
		"identity":   identityPoints(inst),
		"cost":       costPoints(inst),
		"room_board": roomBoardPoints(inst),
		"admissions": admissionsPoints(inst),
		"images":     imagePoints(imageCount),
		"verified":   verifiedPoints(inst),
	}
}

func identityPoints(inst domain.Institution) int {
	pts := 0
	if inst.Name != "" {
		pts += 5
	}
	if inst.City != "" && inst.State != "" {
		pts += 5
	}
	if inst.Website != "" {
		pts += 10
	}
	return pts
}

// costPoints branches on control type: public institutions earn 10 points
// per reported tuition rate (in-state and out-of-state independently),
// private ones earn the full 20 from a single private tuition figure. An
// unset or unrecognized control earns nothing, since neither tuition field
// can be trusted to mean what its name says.
func costPoints(inst domain.Institution) int {
	if inst.Control.Public() {
		pts := 0
		if positive(inst.TuitionInState) {
			pts += 10
		}
		if positive(inst.TuitionOutOfState) {
			pts += 10
		}
		return pts
	}
	if inst.Control.Private() && positive(inst.TuitionPrivate) {
		return costMax
	}
	return 0
}

// roomBoardPoints awards the full category for any one of the three housing
// cost fields; they are alternative reporting styles, not additive.
func roomBoardPoints(inst domain.Institution) int {
	if positive(inst.RoomCost) || positive(inst.BoardCost) || positive(inst.RoomAndBoard) {
		return roomBoardMax
	}
	return 0
}

func admissionsPoints(inst domain.Institution) int {
	pts := 0
	if inst.AcceptanceRate != nil {
		pts += 5
	}
	if inst.SATMath25th != nil || inst.ACTComposite25 != nil {
		pts += 5
	}
	return pts
}

// imagePoints is 0, 15 or 30: fifteen for having any image, fifteen more at
// three or above.
func imagePoints(count int) int {
	pts := 0
	if count >= 1 {
		pts += 15
	}
	if count >= 3 {
		pts += 15
	}
	return pts
}

func verifiedPoints(inst domain.Institution) int {
	if inst.DataSource.Verified() {
		return verifiedBonus
	}
	return 0
}

func positive(f *float64) bool {
	return f != nil && *f > 0
}
