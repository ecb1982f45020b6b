package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusreach/directory/internal/directory/domain"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

func TestScore_EmptyProfile(t *testing.T) {
	assert.Equal(t, 0, Score(domain.Institution{}, 0))
}

func TestScore_FullProfile(t *testing.T) {
	inst := domain.Institution{
		Name:              "State University",
		City:              "Springfield",
		State:             "IL",
		Website:           "https://example.edu",
		Control:           domain.ControlPublic,
		TuitionInState:    f(12000),
		TuitionOutOfState: f(28000),
		RoomCost:          f(8000),
		AcceptanceRate:    f(62.5),
		SATMath25th:       i(540),
		DataSource:        domain.SourceAdmin,
	}
	assert.Equal(t, 100, Score(inst, 3))
}

// Mirrors the acceptance scenario: public institution with identity, both
// public tuitions, room cost, no admissions data, two images, ipeds source.
func TestScore_PublicInstitutionPartialProfile(t *testing.T) {
	inst := domain.Institution{
		Name:              "State University",
		City:              "Springfield",
		State:             "IL",
		Website:           "https://example.edu",
		Control:           domain.ControlPublic,
		TuitionInState:    f(12000),
		TuitionOutOfState: f(28000),
		RoomCost:          f(8000),
		DataSource:        domain.SourceIPEDS,
	}
	require.Equal(t, 75, Score(inst, 2))

	b := Breakdown(inst, 2)
	assert.Equal(t, 20, b["identity"])
	assert.Equal(t, 20, b["cost"])
	assert.Equal(t, 20, b["room_board"])
	assert.Equal(t, 0, b["admissions"])
	assert.Equal(t, 15, b["images"])
	assert.Equal(t, 0, b["verified"])
}

func TestScore_IdentityCategory(t *testing.T) {
	tests := []struct {
		name string
		inst domain.Institution
		want int
	}{
		{"name only", domain.Institution{Name: "A"}, 5},
		{"city without state", domain.Institution{Name: "A", City: "B"}, 5},
		{"city and state", domain.Institution{Name: "A", City: "B", State: "C"}, 10},
		{"website alone", domain.Institution{Website: "https://x"}, 10},
		{"all identity", domain.Institution{Name: "A", City: "B", State: "C", Website: "https://x"}, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, identityPoints(tt.inst))
		})
	}
}

func TestScore_CostBranchesOnControl(t *testing.T) {
	public := domain.Institution{Control: domain.ControlPublic, TuitionInState: f(10000)}
	assert.Equal(t, 10, costPoints(public))

	public.TuitionOutOfState = f(25000)
	assert.Equal(t, 20, costPoints(public))

	// Private tuition on a public institution does not count.
	assert.Equal(t, 0, costPoints(domain.Institution{
		Control:        domain.ControlPublic,
		TuitionPrivate: f(40000),
	}))

	// A single private figure earns the full category.
	assert.Equal(t, 20, costPoints(domain.Institution{
		Control:        domain.ControlPrivateNonprofit,
		TuitionPrivate: f(40000),
	}))

	// Zero-valued tuition does not count as reported.
	assert.Equal(t, 0, costPoints(domain.Institution{
		Control:        domain.ControlPrivateNonprofit,
		TuitionPrivate: f(0),
	}))

	// No recognized control means no cost credit at all.
	assert.Equal(t, 0, costPoints(domain.Institution{TuitionPrivate: f(40000)}))
	assert.Equal(t, 0, costPoints(domain.Institution{
		Control:        domain.ControlType("charter"),
		TuitionPrivate: f(40000),
	}))
}

func TestScore_RoomBoardNotAdditive(t *testing.T) {
	one := domain.Institution{RoomCost: f(8000)}
	all := domain.Institution{RoomCost: f(8000), BoardCost: f(4000), RoomAndBoard: f(12000)}
	assert.Equal(t, 20, roomBoardPoints(one))
	assert.Equal(t, 20, roomBoardPoints(all))
}

func TestScore_AdmissionsEitherTestScore(t *testing.T) {
	assert.Equal(t, 5, admissionsPoints(domain.Institution{AcceptanceRate: f(50)}))
	assert.Equal(t, 5, admissionsPoints(domain.Institution{SATMath25th: i(540)}))
	assert.Equal(t, 5, admissionsPoints(domain.Institution{ACTComposite25: i(22)}))
	assert.Equal(t, 10, admissionsPoints(domain.Institution{AcceptanceRate: f(50), ACTComposite25: i(22)}))
}

func TestScore_ImageThresholds(t *testing.T) {
	assert.Equal(t, 0, imagePoints(0))
	assert.Equal(t, 15, imagePoints(1))
	assert.Equal(t, 15, imagePoints(2))
	assert.Equal(t, 30, imagePoints(3))
	assert.Equal(t, 30, imagePoints(10))
}

// Reverting data_source away from a verified value lowers the score even
// when nothing else changed.
func TestScore_NotMonotonicUnderDataSource(t *testing.T) {
	inst := domain.Institution{Name: "A", DataSource: domain.SourceAdmin}
	verified := Score(inst, 0)

	inst.DataSource = domain.SourceManual
	assert.Equal(t, verified-10, Score(inst, 0))
}

func TestScore_BreakdownSumsToScore(t *testing.T) {
	inst := domain.Institution{
		Name:           "State University",
		Website:        "https://example.edu",
		Control:        domain.ControlPrivateNonprofit,
		TuitionPrivate: f(40000),
		DataSource:     domain.SourceMixed,
	}
	sum := 0
	for _, pts := range Breakdown(inst, 1) {
		sum += pts
	}
	assert.Equal(t, sum, Score(inst, 1))
}
