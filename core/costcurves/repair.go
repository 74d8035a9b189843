package costcurves

import (
	"fmt"
	"math"

	"github.com/kilianp07/fleeteffects/core/deflators"
	"github.com/kilianp07/fleeteffects/core/model"
	"github.com/kilianp07/fleeteffects/core/table"
)

var RepairTemplate = table.Template{
	Name:    "repair_cost",
	Version: "0.1",
	Columns: []string{"item", "value", "dollar_basis"},
}

// Repair is the exponential repair cost curve.
type Repair struct {
	TypeMultiplier       map[string]float64
	PowertrainMultiplier map[model.PowertrainType]float64
	AValues              [5]float64
	AValueAdd            float64
	B                    float64
}

// RepairFromTable reads the item/value table. Only the a-values carry
// dollars and are rescaled.
func RepairFromTable(t *table.Table, d *deflators.Deflators, basis int) (*Repair, error) {
	items := map[string]float64{}
	err := t.Each(func(r *table.Row) error {
		item := r.String("item")
		v := r.Float("value")
		if item == "a_value_add" || (len(item) == len("a_value_0") && item[:len("a_value_")] == "a_value_") {
			db := r.Int("dollar_basis")
			if err := d.Adjust(&db, basis, &v); err != nil {
				return err
			}
		}
		items[item] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	rp := &Repair{
		TypeMultiplier:       map[string]float64{},
		PowertrainMultiplier: map[model.PowertrainType]float64{},
	}
	for _, typ := range []string{"car", "suv", "truck"} {
		v, ok := items[typ+"_multiplier"]
		if !ok {
			return nil, fmt.Errorf("%s: missing %s_multiplier", RepairTemplate.Name, typ)
		}
		rp.TypeMultiplier[typ] = v
	}
	for _, pt := range []model.PowertrainType{model.PowertrainICE, model.PowertrainHEV, model.PowertrainPHEV, model.PowertrainBEV} {
		v, ok := items[string(pt)+"_multiplier"]
		if !ok {
			return nil, fmt.Errorf("%s: missing %s_multiplier", RepairTemplate.Name, pt)
		}
		rp.PowertrainMultiplier[pt] = v
	}
	for i := range rp.AValues {
		k := fmt.Sprintf("a_value_%d", i)
		v, ok := items[k]
		if !ok {
			return nil, fmt.Errorf("%s: missing %s", RepairTemplate.Name, k)
		}
		rp.AValues[i] = v
	}
	rp.AValueAdd = items["a_value_add"]
	rp.B = items["b"]
	return rp, nil
}

// A returns the age coefficient, extrapolated linearly past age 4.
func (r *Repair) A(age int) float64 {
	switch {
	case age < 0:
		return r.AValues[0]
	case age <= 4:
		return r.AValues[age]
	default:
		return r.AValues[4] + float64(age-4)*r.AValueAdd
	}
}

// RatePerMile is type_mult * powertrain_mult * a(age) * exp(vehicleCost * b).
func (r *Repair) RatePerMile(useClass string, pt model.PowertrainType, age int, vehicleCost float64) float64 {
	if pt == model.PowertrainMHEV {
		pt = model.PowertrainICE
	}
	return r.TypeMultiplier[useClass] * r.PowertrainMultiplier[pt] * r.A(age) * math.Exp(vehicleCost*r.B)
}
