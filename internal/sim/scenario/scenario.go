// Package scenario loads simulation setups from YAML files. A document
// is validated against the package's JSON schema before it is converted
// into typed configuration, so a bad file is rejected with a field path
// instead of silently producing a strange world.
package scenario

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/fgamador/evo2/internal/sim/cell"
	"github.com/fgamador/evo2/internal/sim/genesis"
	"github.com/fgamador/evo2/internal/sim/num"
	"github.com/fgamador/evo2/internal/sim/world"
)

//go:embed schema.json
var schemaJSON string

var docSchema = jsonschema.MustCompileString("scenario.schema.json", schemaJSON)

// Doc is the raw YAML shape of a scenario file.
type Doc struct {
	Name      string       `yaml:"name"`
	Steps     uint64       `yaml:"steps"`
	Seed      int64        `yaml:"seed"`
	World     WorldDoc     `yaml:"world"`
	Constants ConstantsDoc `yaml:"constants"`
	Cells     CellsDoc     `yaml:"cells"`
}

type WorldDoc struct {
	InitialFood float64         `yaml:"initial_food"`
	FoodSources []FoodSourceDoc `yaml:"food_sources"`
}

type FoodSourceDoc struct {
	Kind      string  `yaml:"kind"`
	Amount    float64 `yaml:"amount"`
	Initial   float64 `yaml:"initial"`
	Increment float64 `yaml:"increment"`
}

type ConstantsDoc struct {
	CreateChildEnergy                float64       `yaml:"create_child_energy"`
	FoodYieldFromEating              float64       `yaml:"food_yield_from_eating"`
	EnergyYieldFromDigestion         float64       `yaml:"energy_yield_from_digestion"`
	HealthIncreasePerHealingEnergy   float64       `yaml:"health_increase_per_healing_energy"`
	HealthReductionFromEntropy       float64       `yaml:"health_reduction_from_entropy"`
	HealthReductionPerEnergyExpended float64       `yaml:"health_reduction_per_energy_expended"`
	MutationSD                       MutationSDDoc `yaml:"mutation_sd"`
}

type MutationSDDoc struct {
	EatingEnergy         float64 `yaml:"eating_energy"`
	HealingEnergy        float64 `yaml:"healing_energy"`
	ChildThresholdEnergy float64 `yaml:"child_threshold_energy"`
	ChildThresholdFood   float64 `yaml:"child_threshold_food"`
}

type CellsDoc struct {
	Count         int       `yaml:"count"`
	InitialEnergy NormalDoc `yaml:"initial_energy"`
	EatingEnergy  NormalDoc `yaml:"eating_energy"`
	HealingEnergy NormalDoc `yaml:"healing_energy"`
	// A nil ChildThresholdEnergy disables reproduction: the threshold
	// becomes the largest finite value.
	ChildThresholdEnergy *NormalDoc `yaml:"child_threshold_energy"`
	ChildThresholdFood   NormalDoc  `yaml:"child_threshold_food"`
}

type NormalDoc struct {
	Mean float64 `yaml:"mean"`
	SD   float64 `yaml:"sd"`
}

func defaultDoc() Doc {
	return Doc{
		Constants: ConstantsDoc{
			FoodYieldFromEating:      1,
			EnergyYieldFromDigestion: 1,
		},
	}
}

// Scenario is a validated, typed simulation setup.
type Scenario struct {
	Name        string
	Steps       uint64 // 0 means no step limit
	Seed        int64
	InitialFood num.NonNeg
	Sources     []SourceSpec
	Constants   cell.Constants
	Cells       genesis.Config
}

// SourceSpec describes one food source. Build constructs a fresh source,
// so a Scenario can seed any number of independent worlds.
type SourceSpec struct {
	Kind      string
	Amount    num.NonNeg
	Initial   num.NonNeg
	Increment num.NonNeg
}

func (s SourceSpec) Build() world.FoodSource {
	if s.Kind == "growing" {
		return world.NewGrowingFoodSource(s.Initial, s.Increment)
	}
	return world.NewConstantFoodSource(s.Amount)
}

func (s Scenario) BuildFoodSources() []world.FoodSource {
	out := make([]world.FoodSource, 0, len(s.Sources))
	for _, spec := range s.Sources {
		out = append(out, spec.Build())
	}
	return out
}

// Load reads, validates and converts a scenario file.
func Load(path string) (Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	sc, err := Parse(raw)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// Parse validates and converts raw scenario YAML.
func Parse(raw []byte) (Scenario, error) {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return Scenario{}, err
	}
	if err := docSchema.Validate(generic); err != nil {
		return Scenario{}, err
	}
	doc := defaultDoc()
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Scenario{}, err
	}
	return FromDoc(doc)
}

// conv collects the first conversion error so field chains read flat.
type conv struct {
	err error
}

func (c *conv) nonNeg(field string, v float64) num.NonNeg {
	if c.err != nil {
		return num.NonNeg{}
	}
	n, err := num.NewNonNeg(v)
	if err != nil {
		c.err = fmt.Errorf("%s: %w", field, err)
	}
	return n
}

func (c *conv) frac(field string, v float64) num.Frac {
	if c.err != nil {
		return num.Frac{}
	}
	f, err := num.NewFrac(v)
	if err != nil {
		c.err = fmt.Errorf("%s: %w", field, err)
	}
	return f
}

func (c *conv) rate(field string, v float64) num.Rate {
	if c.err != nil {
		return num.Rate{}
	}
	r, err := num.NewRate(v)
	if err != nil {
		c.err = fmt.Errorf("%s: %w", field, err)
	}
	return r
}

func (c *conv) normal(field string, d NormalDoc) genesis.Normal {
	c.nonNeg(field+".mean", d.Mean)
	c.nonNeg(field+".sd", d.SD)
	return genesis.Normal{Mean: d.Mean, StdDev: d.SD}
}

// FromDoc converts a document through the checked constructors. It is
// the conversion step of Parse, exported so programmatically built
// documents (the CLI's flag surface) share the same validation.
func FromDoc(doc Doc) (Scenario, error) {
	c := &conv{}

	constants := cell.Constants{
		CreateChildEnergy:                c.nonNeg("constants.create_child_energy", doc.Constants.CreateChildEnergy),
		FoodYieldFromEating:              c.nonNeg("constants.food_yield_from_eating", doc.Constants.FoodYieldFromEating),
		EnergyYieldFromDigestion:         c.nonNeg("constants.energy_yield_from_digestion", doc.Constants.EnergyYieldFromDigestion),
		HealthIncreasePerHealingEnergy:   c.rate("constants.health_increase_per_healing_energy", doc.Constants.HealthIncreasePerHealingEnergy),
		HealthReductionFromEntropy:       c.frac("constants.health_reduction_from_entropy", doc.Constants.HealthReductionFromEntropy),
		HealthReductionPerEnergyExpended: c.rate("constants.health_reduction_per_energy_expended", doc.Constants.HealthReductionPerEnergyExpended),
		EatingEnergyMutationSD:           c.nonNeg("constants.mutation_sd.eating_energy", doc.Constants.MutationSD.EatingEnergy),
		HealingEnergyMutationSD:          c.nonNeg("constants.mutation_sd.healing_energy", doc.Constants.MutationSD.HealingEnergy),
		ChildThresholdEnergyMutationSD:   c.nonNeg("constants.mutation_sd.child_threshold_energy", doc.Constants.MutationSD.ChildThresholdEnergy),
		ChildThresholdFoodMutationSD:     c.nonNeg("constants.mutation_sd.child_threshold_food", doc.Constants.MutationSD.ChildThresholdFood),
	}

	childThreshold := genesis.Normal{Mean: math.MaxFloat64}
	if doc.Cells.ChildThresholdEnergy != nil {
		childThreshold = c.normal("cells.child_threshold_energy", *doc.Cells.ChildThresholdEnergy)
	}
	cells := genesis.Config{
		Count:                doc.Cells.Count,
		InitialEnergy:        c.normal("cells.initial_energy", doc.Cells.InitialEnergy),
		EatingEnergy:         c.normal("cells.eating_energy", doc.Cells.EatingEnergy),
		HealingEnergy:        c.normal("cells.healing_energy", doc.Cells.HealingEnergy),
		ChildThresholdEnergy: childThreshold,
		ChildThresholdFood:   c.normal("cells.child_threshold_food", doc.Cells.ChildThresholdFood),
	}

	sources := make([]SourceSpec, 0, len(doc.World.FoodSources))
	for i, src := range doc.World.FoodSources {
		sources = append(sources, SourceSpec{
			Kind:      src.Kind,
			Amount:    c.nonNeg(fmt.Sprintf("world.food_sources[%d].amount", i), src.Amount),
			Initial:   c.nonNeg(fmt.Sprintf("world.food_sources[%d].initial", i), src.Initial),
			Increment: c.nonNeg(fmt.Sprintf("world.food_sources[%d].increment", i), src.Increment),
		})
	}

	sc := Scenario{
		Name:        doc.Name,
		Steps:       doc.Steps,
		Seed:        doc.Seed,
		InitialFood: c.nonNeg("world.initial_food", doc.World.InitialFood),
		Sources:     sources,
		Constants:   constants,
		Cells:       cells,
	}
	if c.err != nil {
		return Scenario{}, c.err
	}
	return sc, nil
}
