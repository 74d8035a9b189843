package effects

import (
	"fmt"

	"github.com/kilianp07/fleeteffects/core/costcurves"
	"github.com/kilianp07/fleeteffects/core/factors"
	"github.com/kilianp07/fleeteffects/core/fleet"
	"github.com/kilianp07/fleeteffects/core/fuels"
	"github.com/kilianp07/fleeteffects/core/logger"
	"github.com/kilianp07/fleeteffects/core/model"
	"github.com/kilianp07/fleeteffects/core/rates"
)

// Inputs are the batch-level tables shared by every session.
type Inputs struct {
	General         factors.GeneralInputs
	Onroad          *fuels.Onroad
	VehicleRates    *rates.Vehicles
	FatalityRates   *factors.FatalityRates
	SafetyValues    factors.SafetyValues
	EnergySecurity  *factors.EnergySecurityFactors
	CongestionNoise map[string]factors.CongestionNoise
	PowertrainCosts *factors.PowertrainCosts
	Maintenance     *costcurves.Maintenance
	Repair          *costcurves.Repair
	Refueling       *costcurves.Refueling
}

// Calculator evaluates the effects of one session.
type Calculator struct {
	Inputs      *Inputs
	Policy      model.SessionPolicy
	SessionName string
	// Vehicles holds both analysis-fleet and legacy vehicles.
	Vehicles fleet.Registry
	Prices   *fuels.Prices
	Refinery rates.Refinery
	EGU      *rates.EGUSession
	Log      logger.Logger

	warned map[string]bool
}

func (c *Calculator) warnOnce(key, format string, args ...any) {
	if c.warned == nil {
		c.warned = map[string]bool{}
	}
	if c.warned[key] {
		return
	}
	c.warned[key] = true
	c.log().Warnf(format, args...)
}

func (c *Calculator) log() logger.Logger {
	if c.Log == nil {
		return logger.NopLogger{}
	}
	return c.Log
}

func (c *Calculator) vehicle(id model.VehicleID) (*model.Vehicle, error) {
	v, ok := c.Vehicles[id]
	if !ok {
		return nil, fmt.Errorf("session %s: annual data references unknown vehicle %s", c.SessionName, id)
	}
	return v, nil
}
