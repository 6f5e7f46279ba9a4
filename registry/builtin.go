package registry

import (
	"context"
	"fmt"
	"math"

	"github.com/kevinaugment/calcengine/calc"
)

// Built-in fallback calculator IDs.
const (
	BuiltinCuttingCost         = "laser-cutting-cost"
	BuiltinMaterialUtilization = "material-utilization"
	BuiltinPowerRequirement    = "power-requirement"
)

// Builtins returns the fixed set of built-in fallback algorithms, keyed by
// calculator ID. The engine consults these when no algorithm was registered
// for an ID. The returned map is freshly allocated on each call.
func Builtins() map[string]Algorithm {
	return map[string]Algorithm{
		BuiltinCuttingCost:         cuttingCost,
		BuiltinMaterialUtilization: materialUtilization,
		BuiltinPowerRequirement:    powerRequirement,
	}
}

// cuttingCost estimates the total cost of a laser cutting job from cutting
// length, material thickness, laser power, and machine/electricity rates.
func cuttingCost(_ context.Context, inputs calc.InputMap) (*calc.Result, error) {
	length := inputs.Number("cuttingLength", 1000) // mm
	thickness := inputs.Number("thickness", 3)     // mm
	power := inputs.Number("power", 3)             // kW
	hourRate := inputs.Number("machineHourRate", 45)
	kwhRate := inputs.Number("electricityRate", 0.15)

	// Cutting speed falls roughly linearly with thickness for a given
	// power class; 1800 mm/min per kW at 1mm is the platform's baseline.
	speed := 1800 * power / thickness // mm/min
	if speed <= 0 {
		return nil, fmt.Errorf("registry: non-positive cutting speed for thickness %.2f", thickness)
	}
	minutes := length / speed
	hours := minutes / 60

	machineCost := hours * hourRate
	energyCost := hours * power * kwhRate
	total := machineCost + energyCost

	return &calc.Result{
		Value: round2(total),
		Unit:  "USD",
		Label: "Estimated cutting cost",
		Breakdown: []calc.BreakdownItem{
			{Label: "Machine time", Value: round2(machineCost), Unit: "USD", Percentage: round2(percent(machineCost, total))},
			{Label: "Energy", Value: round2(energyCost), Unit: "USD", Percentage: round2(percent(energyCost, total))},
		},
		Recommendations: cuttingCostAdvice(thickness, power),
	}, nil
}

func cuttingCostAdvice(thickness, power float64) []string {
	var recs []string
	if thickness > 10 && power < 6 {
		recs = append(recs, "Material over 10mm cuts slowly below 6kW; consider a higher power class")
	}
	if thickness <= 1 {
		recs = append(recs, "Thin sheet is sensitive to heat distortion; reduce power or increase speed")
	}
	return recs
}

// materialUtilization reports the share of a sheet consumed by nested parts.
func materialUtilization(_ context.Context, inputs calc.InputMap) (*calc.Result, error) {
	width := inputs.Number("sheetWidth", 1500)   // mm
	height := inputs.Number("sheetHeight", 3000) // mm
	partArea := inputs.Number("partArea", 10000) // mm^2
	count := inputs.Number("partCount", 1)

	sheetArea := width * height
	if sheetArea <= 0 {
		return nil, fmt.Errorf("registry: non-positive sheet area %.2f x %.2f", width, height)
	}
	used := partArea * count
	utilization := percent(used, sheetArea)
	waste := sheetArea - used

	recs := []string{}
	if utilization < 70 {
		recs = append(recs, "Utilization below 70%; re-nest parts or choose a smaller sheet")
	}

	return &calc.Result{
		Value: round2(utilization),
		Unit:  "%",
		Label: "Material utilization",
		Breakdown: []calc.BreakdownItem{
			{Label: "Parts", Value: round2(used), Unit: "mm²", Percentage: round2(utilization)},
			{Label: "Waste", Value: round2(waste), Unit: "mm²", Percentage: round2(100 - utilization)},
		},
		Recommendations: recs,
	}, nil
}

// powerFactors maps material to required kW per mm of thickness.
var powerFactors = map[string]float64{
	"mild-steel":      0.5,
	"stainless-steel": 0.65,
	"aluminum":        0.8,
}

// powerRequirement estimates the laser power needed to cut a material at a
// given thickness.
func powerRequirement(_ context.Context, inputs calc.InputMap) (*calc.Result, error) {
	thickness := inputs.Number("thickness", 3) // mm
	material := inputs.Text("material", "mild-steel")

	factor, ok := powerFactors[material]
	if !ok {
		return nil, fmt.Errorf("registry: unknown material %q", material)
	}

	base := factor * thickness
	// 20% margin keeps the machine off its ceiling on dross-prone cuts.
	margin := base * 0.2
	required := base + margin

	return &calc.Result{
		Value: round2(required),
		Unit:  "kW",
		Label: "Required laser power",
		Breakdown: []calc.BreakdownItem{
			{Label: "Base requirement", Value: round2(base), Unit: "kW", Percentage: round2(percent(base, required))},
			{Label: "Safety margin", Value: round2(margin), Unit: "kW", Percentage: round2(percent(margin, required))},
		},
	}, nil
}

func percent(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
