package world

import (
	"errors"
	"testing"

	"github.com/fgamador/evo2/internal/sim/cell"
	"github.com/fgamador/evo2/internal/sim/num"
)

func nn(v float64) num.NonNeg { return num.ClipNonNeg(v) }

func fr(v float64) num.Frac { return num.ClipFrac(v) }

func inertCell(constants *cell.Constants, energy float64) *cell.Cell {
	return cell.New(constants, cell.DefaultParams()).WithEnergy(nn(energy))
}

func eatingCell(constants *cell.Constants, eat, energy float64) *cell.Cell {
	params := cell.DefaultParams()
	params.AttemptedEatingEnergy = nn(eat)
	return cell.New(constants, params).WithEnergy(nn(energy))
}

func reproducingCell(constants *cell.Constants, threshold, energy float64) *cell.Cell {
	params := cell.Params{ChildThresholdEnergy: nn(threshold)}
	return cell.New(constants, params).WithEnergy(nn(energy))
}

type statsRecorder struct {
	entries []TickStats
	err     error
}

func (r *statsRecorder) WriteTick(s TickStats) error {
	r.entries = append(r.entries, s)
	return r.err
}

func TestWorld_CountsBothLivingAndDeadCells(t *testing.T) {
	constants := cell.DefaultConstants()
	w := New(Config{})
	w.AddCells([]*cell.Cell{
		inertCell(&constants, 1),
		inertCell(&constants, 0).WithHealth(fr(0)),
		inertCell(&constants, 1),
	})
	if w.NumCells() != 3 {
		t.Fatalf("num cells = %d, want 3", w.NumCells())
	}
}

func TestWorld_MeansWithNoCellsAreZero(t *testing.T) {
	w := New(Config{})
	if w.MeanEnergy() != 0 {
		t.Fatalf("mean energy = %v, want 0", w.MeanEnergy())
	}
	if w.MeanHealth() != 0 {
		t.Fatalf("mean health = %v, want 0", w.MeanHealth())
	}
}

func TestWorld_CalculatesMeanEnergy(t *testing.T) {
	constants := cell.DefaultConstants()
	w := New(Config{})
	w.AddCell(inertCell(&constants, 1))
	w.AddCell(inertCell(&constants, 2))
	if w.MeanEnergy() != 1.5 {
		t.Fatalf("mean energy = %v, want 1.5", w.MeanEnergy())
	}
}

func TestWorld_CalculatesMeanHealth(t *testing.T) {
	constants := cell.DefaultConstants()
	w := New(Config{})
	w.AddCell(inertCell(&constants, 0))
	w.AddCell(inertCell(&constants, 0).WithHealth(fr(0.5)))
	if w.MeanHealth() != 0.75 {
		t.Fatalf("mean health = %v, want 0.75", w.MeanHealth())
	}
}

func TestWorld_Step_CellsConsumeFood(t *testing.T) {
	constants := cell.DefaultConstants()
	w := New(Config{})
	w.SetFood(nn(10))
	w.AddCell(eatingCell(&constants, 2, 10))
	w.AddCell(eatingCell(&constants, 3, 10))

	w.Step()

	if w.Food().Value() != 5.0 {
		t.Fatalf("food = %v, want 5", w.Food().Value())
	}
}

func TestWorld_Step_CellsCannotConsumeMoreThanTheirShare(t *testing.T) {
	constants := cell.DefaultConstants()
	w := New(Config{})
	w.SetFood(nn(4))
	w.AddCell(eatingCell(&constants, 3, 10))
	w.AddCell(eatingCell(&constants, 1, 10))

	w.Step()

	// The first cell is capped at its half share of two.
	if w.Food().Value() != 1.0 {
		t.Fatalf("food = %v, want 1", w.Food().Value())
	}
}

func TestWorld_Step_RemovesDeadCells(t *testing.T) {
	constants := cell.DefaultConstants()
	constants.HealthReductionFromEntropy = fr(0.5)
	w := New(Config{})
	w.AddCell(inertCell(&constants, 1))
	w.AddCell(inertCell(&constants, 1).WithHealth(fr(0.5)))

	_, died := w.Step()

	if died != 1 {
		t.Fatalf("died = %d, want 1", died)
	}
	if w.NumCells() != 1 {
		t.Fatalf("num cells = %d, want 1", w.NumCells())
	}
	if !w.Cell(0).Alive() {
		t.Fatalf("surviving cell should be alive")
	}
}

func TestWorld_Step_ReportsDeaths(t *testing.T) {
	constants := cell.DefaultConstants()
	constants.HealthReductionFromEntropy = fr(0.5)
	w := New(Config{})
	w.AddCell(inertCell(&constants, 1))
	w.AddCell(inertCell(&constants, 1).WithHealth(fr(0.25)))
	w.AddCell(inertCell(&constants, 1).WithHealth(fr(0.5)))

	_, died := w.Step()

	if died != 2 {
		t.Fatalf("died = %d, want 2", died)
	}
	if w.NumCells() != 1 {
		t.Fatalf("num cells = %d, want 1", w.NumCells())
	}
}

func TestWorld_Step_AddsNewborns(t *testing.T) {
	constants := cell.DefaultConstants()
	constants.CreateChildEnergy = nn(1.5)
	w := New(Config{})
	w.AddCell(reproducingCell(&constants, 4, 10))

	born, died := w.Step()

	if born != 1 || died != 0 {
		t.Fatalf("born, died = %d, %d, want 1, 0", born, died)
	}
	if w.NumCells() != 2 {
		t.Fatalf("num cells = %d, want 2", w.NumCells())
	}
	if got := w.Cell(0).Energy().Value(); got != 6.0 {
		t.Fatalf("parent energy = %v, want 6", got)
	}
	// The child has not stepped yet, so its energy is untouched.
	if got := w.Cell(1).Energy().Value(); got != 2.5 {
		t.Fatalf("child energy = %v, want 2.5", got)
	}
}

func TestWorld_Step_EmptyWorldStillAccruesFood(t *testing.T) {
	w := New(Config{})
	w.SetFood(nn(3))
	w.AddFoodSource(NewConstantFoodSource(nn(2)))

	born, died := w.Step()

	if born != 0 || died != 0 {
		t.Fatalf("born, died = %d, %d, want 0, 0", born, died)
	}
	if w.Food().Value() != 5.0 {
		t.Fatalf("food = %v, want 5", w.Food().Value())
	}
}

func TestWorld_Step_FoodSourcesFeedBeforeCellsEat(t *testing.T) {
	constants := cell.DefaultConstants()
	w := New(Config{})
	w.AddFoodSource(NewConstantFoodSource(nn(4)))
	w.AddCell(eatingCell(&constants, 1, 10))
	w.AddCell(eatingCell(&constants, 1, 10))

	w.Step()

	if w.Food().Value() != 2.0 {
		t.Fatalf("food = %v, want 2", w.Food().Value())
	}
}

func TestWorld_GrowingFoodSourceAddsMoreEachStep(t *testing.T) {
	w := New(Config{})
	w.AddFoodSource(NewGrowingFoodSource(nn(1), nn(1)))

	w.Step()
	w.Step()
	w.Step()

	if w.Food().Value() != 6.0 {
		t.Fatalf("food = %v, want 6", w.Food().Value())
	}
}

func TestWorld_Step_SwapRemovesAroundNewborns(t *testing.T) {
	doomed := cell.DefaultConstants()
	doomed.HealthReductionFromEntropy = fr(0.5)
	fertile := cell.DefaultConstants()
	fertile.CreateChildEnergy = nn(1.5)

	w := New(Config{})
	w.AddCell(inertCell(&doomed, 1).WithHealth(fr(0.5)))
	w.AddCell(reproducingCell(&fertile, 4, 10))
	w.AddCell(inertCell(&doomed, 1).WithHealth(fr(0.25)))

	born, died := w.Step()

	if born != 1 || died != 2 {
		t.Fatalf("born, died = %d, %d, want 1, 2", born, died)
	}
	if w.NumCells() != 2 {
		t.Fatalf("num cells = %d, want 2", w.NumCells())
	}
	energies := map[float64]bool{}
	for i := 0; i < w.NumCells(); i++ {
		if !w.Cell(i).Alive() {
			t.Fatalf("cell %d should be alive", i)
		}
		energies[w.Cell(i).Energy().Value()] = true
	}
	if !energies[6.0] || !energies[2.5] {
		t.Fatalf("survivor energies = %v, want parent (6) and child (2.5)", energies)
	}
}

func TestWorld_Step_TickAdvances(t *testing.T) {
	w := New(Config{})
	if w.Tick() != 0 {
		t.Fatalf("tick = %d, want 0", w.Tick())
	}
	w.Step()
	if w.Tick() != 1 {
		t.Fatalf("tick = %d, want 1", w.Tick())
	}
}

func TestWorld_Step_UsesConfiguredMutator(t *testing.T) {
	constants := cell.DefaultConstants()
	constants.ChildThresholdEnergyMutationSD = nn(1)
	w := New(Config{Mutator: cell.AdditiveMutator{}})
	w.AddCell(reproducingCell(&constants, 4, 10))

	w.Step()

	if w.NumCells() != 2 {
		t.Fatalf("num cells = %d, want 2", w.NumCells())
	}
	if got := w.Cell(1).Params().ChildThresholdEnergy.Value(); got != 5 {
		t.Fatalf("child threshold = %v, want 5", got)
	}
}

func TestWorld_StatsLoggerReceivesTickStats(t *testing.T) {
	constants := cell.DefaultConstants()
	rec := &statsRecorder{}
	w := New(Config{})
	w.SetStatsLogger(rec)
	w.SetFood(nn(7))
	w.AddCell(inertCell(&constants, 4))

	w.Step()

	if len(rec.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(rec.entries))
	}
	want := TickStats{Tick: 1, Born: 0, Died: 0, Cells: 1, MeanHealth: 1, MeanEnergy: 4, Food: 7}
	if rec.entries[0] != want {
		t.Fatalf("entry = %+v, want %+v", rec.entries[0], want)
	}
}

func TestWorld_StatsLoggerErrorsAreDiscarded(t *testing.T) {
	rec := &statsRecorder{err: errors.New("sink failed")}
	w := New(Config{})
	w.SetStatsLogger(rec)

	w.Step()
	w.Step()

	if len(rec.entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(rec.entries))
	}
}

func TestMultiStats_FansOutAndKeepsFirstError(t *testing.T) {
	a := &statsRecorder{err: errors.New("a failed")}
	b := &statsRecorder{}
	ms := MultiStats(a, nil, b)

	err := ms.WriteTick(TickStats{Tick: 9})

	if err == nil || err.Error() != "a failed" {
		t.Fatalf("err = %v, want a failed", err)
	}
	if len(a.entries) != 1 || len(b.entries) != 1 {
		t.Fatalf("entries = %d, %d, want 1, 1", len(a.entries), len(b.entries))
	}
	if b.entries[0].Tick != 9 {
		t.Fatalf("tick = %d, want 9", b.entries[0].Tick)
	}
}
