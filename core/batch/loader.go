package batch

import (
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/fleeteffects/config"
	"github.com/kilianp07/fleeteffects/core/costcurves"
	"github.com/kilianp07/fleeteffects/core/deflators"
	"github.com/kilianp07/fleeteffects/core/effects"
	"github.com/kilianp07/fleeteffects/core/factors"
	"github.com/kilianp07/fleeteffects/core/fleet"
	"github.com/kilianp07/fleeteffects/core/fuels"
	"github.com/kilianp07/fleeteffects/core/logger"
	"github.com/kilianp07/fleeteffects/core/model"
	"github.com/kilianp07/fleeteffects/core/rates"
	"github.com/kilianp07/fleeteffects/core/table"
)

// LoadedTable records one input file read during the batch.
type LoadedTable struct {
	Template string
	Path     string
	Modified time.Time
	Rows     int
}

// SessionInputs are the tables resolved for one session. Tables shared
// between sessions point at the same values.
type SessionInputs struct {
	Settings config.SessionSettings
	Effects  *effects.Inputs
	Prices   *fuels.Prices
	StockVMT fleet.ContextStockVMT
	Refinery rates.Refinery
	EGU      *rates.EGU
	SCC      *factors.SCC
	Criteria *factors.Criteria
	// Vehicles and Annual are empty for a context session without its own
	// compliance output.
	Vehicles fleet.Registry
	Annual   []model.AnnualDatum
	Legacy   *fleet.Projection
}

// Loader resolves and parses input tables. A table referenced by the same
// path from several sessions is read once.
type Loader struct {
	Settings *config.BatchSettings
	Region   string
	Log      logger.Logger

	mu     sync.Mutex
	cache  map[string]any
	loaded []LoadedTable
}

// NewLoader returns a loader for the batch.
func NewLoader(b *config.BatchSettings, region string, log logger.Logger) *Loader {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Loader{Settings: b, Region: region, Log: log, cache: map[string]any{}}
}

// Loaded lists every table read so far in load order.
func (l *Loader) Loaded() []LoadedTable {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LoadedTable(nil), l.loaded...)
}

func cached[T any](l *Loader, s config.SessionSettings, param string, tmpl table.Template, build func(*table.Table) (T, error)) (T, error) {
	var zero T
	path, err := l.Settings.Path(s, param)
	if err != nil {
		return zero, err
	}
	key := param + "\x00" + path
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.cache[key]; ok {
		return v.(T), nil
	}
	t, err := table.Loader{Log: l.Log}.Load(path, tmpl)
	if err != nil {
		return zero, err
	}
	v, err := build(t)
	if err != nil {
		return zero, fmt.Errorf("%s (%s): %w", param, path, err)
	}
	l.cache[key] = v
	l.loaded = append(l.loaded, LoadedTable{Template: tmpl.String(), Path: path, Modified: t.ModTime, Rows: t.Len()})
	return v, nil
}

func (l *Loader) deflators(s config.SessionSettings) (implicit, cpi *deflators.Deflators, err error) {
	implicit, err = cached(l, s, config.FileImplicitDeflators, deflators.ImplicitPriceTemplate, deflators.FromTable)
	if err != nil {
		return nil, nil, err
	}
	cpi, err = cached(l, s, config.FileCPIDeflators, deflators.CPITemplate, deflators.FromTable)
	if err != nil {
		return nil, nil, err
	}
	return implicit, cpi, nil
}

// Effects loads the calibration tables consumed by the per-vehicle effects.
func (l *Loader) Effects(s config.SessionSettings) (*effects.Inputs, error) {
	b := l.Settings
	implicit, _, err := l.deflators(s)
	if err != nil {
		return nil, err
	}
	basis := b.DollarBasis
	in := &effects.Inputs{}
	if in.General, err = cached(l, s, config.FileGeneralInputs, factors.GeneralInputsTemplate, factors.GeneralInputsFromTable); err != nil {
		return nil, err
	}
	if in.Onroad, err = cached(l, s, config.FileOnroadFuels, fuels.OnroadTemplate, fuels.OnroadFromTable); err != nil {
		return nil, err
	}
	if in.VehicleRates, err = cached(l, s, config.FileVehicleRates, rates.VehiclesTemplate, rates.VehiclesFromTable); err != nil {
		return nil, err
	}
	if in.FatalityRates, err = cached(l, s, config.FileFatalityRates, factors.FatalityRatesTemplate, factors.FatalityRatesFromTable); err != nil {
		return nil, err
	}
	if in.SafetyValues, err = cached(l, s, config.FileSafetyValues, factors.SafetyValuesTemplate, factors.SafetyValuesFromTable); err != nil {
		return nil, err
	}
	in.EnergySecurity, err = cached(l, s, config.FileEnergySecurityCosts, factors.EnergySecurityTemplate, func(t *table.Table) (*factors.EnergySecurityFactors, error) {
		return factors.EnergySecurityFromTable(t, implicit, basis)
	})
	if err != nil {
		return nil, err
	}
	in.CongestionNoise, err = cached(l, s, config.FileCongestionNoiseCosts, factors.CongestionNoiseTemplate, func(t *table.Table) (map[string]factors.CongestionNoise, error) {
		return factors.CongestionNoiseFromTable(t, implicit, basis)
	})
	if err != nil {
		return nil, err
	}
	in.PowertrainCosts, err = cached(l, s, config.FilePowertrainCosts, factors.PowertrainCostTemplate, func(t *table.Table) (*factors.PowertrainCosts, error) {
		return factors.PowertrainCostsFromTable(t, implicit, basis)
	})
	if err != nil {
		return nil, err
	}
	curveMiles := in.General.MaintenanceCurveMiles
	in.Maintenance, err = cached(l, s, config.FileMaintenanceCosts, costcurves.MaintenanceTemplate, func(t *table.Table) (*costcurves.Maintenance, error) {
		return costcurves.MaintenanceFromTable(t, implicit, basis, curveMiles)
	})
	if err != nil {
		return nil, err
	}
	in.Repair, err = cached(l, s, config.FileRepairCosts, costcurves.RepairTemplate, func(t *table.Table) (*costcurves.Repair, error) {
		return costcurves.RepairFromTable(t, implicit, basis)
	})
	if err != nil {
		return nil, err
	}
	in.Refueling, err = cached(l, s, config.FileRefuelingCosts, costcurves.RefuelingTemplate, func(t *table.Table) (*costcurves.Refueling, error) {
		return costcurves.RefuelingFromTable(t, implicit, basis)
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}

// Legacy projects the legacy fleet through the analysis window.
func (l *Loader) Legacy(s config.SessionSettings, onroad *fuels.Onroad) (*fleet.Projection, error) {
	b := l.Settings
	implicit, _, err := l.deflators(s)
	if err != nil {
		return nil, err
	}
	rows, err := cached(l, s, config.FileLegacyFleet, fleet.LegacyTemplate, func(t *table.Table) ([]fleet.LegacyRow, error) {
		return fleet.LegacyFromTable(t, b.BaseYear, l.Region, implicit, b.DollarBasis)
	})
	if err != nil {
		return nil, err
	}
	rereg, err := cached(l, s, config.FileReregistration, fleet.ReregistrationTemplate, func(t *table.Table) (*fleet.Reregistration, error) {
		return fleet.ReregistrationFromTable(t, l.Region)
	})
	if err != nil {
		return nil, err
	}
	miles, err := cached(l, s, config.FileAnnualVMT, fleet.AnnualVMTTemplate, func(t *table.Table) (*fleet.AnnualVMT, error) {
		return fleet.AnnualVMTFromTable(t, l.Region)
	})
	if err != nil {
		return nil, err
	}
	key := "legacy projection"
	for _, param := range []string{config.FileLegacyFleet, config.FileReregistration, config.FileAnnualVMT, config.FileOnroadFuels} {
		path, _ := b.Path(s, param)
		key += "\x00" + path
	}
	l.mu.Lock()
	if p, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return p.(*fleet.Projection).Clone(), nil
	}
	l.mu.Unlock()

	l.Log.Infof("Starting legacy fleet projection for %d-%d", b.FirstYear(), b.FinalYear)
	proj, err := fleet.Projector{Reregistration: rereg, AnnualVMT: miles, Fuels: onroad, Log: l.Log}.Project(rows, b.FirstYear(), b.FinalYear)
	if err != nil {
		return nil, fmt.Errorf("legacy fleet: %w", err)
	}
	l.mu.Lock()
	l.cache[key] = proj
	l.mu.Unlock()
	return proj.Clone(), nil
}

// Session resolves every table of a session.
func (l *Loader) Session(s config.SessionSettings) (*SessionInputs, error) {
	b := l.Settings
	implicit, cpi, err := l.deflators(s)
	if err != nil {
		return nil, err
	}
	in := &SessionInputs{Settings: s}
	if in.Effects, err = l.Effects(s); err != nil {
		return nil, err
	}
	in.Prices, err = cached(l, s, config.FileFuelPrices, fuels.PricesTemplate, func(t *table.Table) (*fuels.Prices, error) {
		return fuels.PricesFromTable(t, b.ContextName, b.ContextCase, implicit, b.DollarBasis)
	})
	if err != nil {
		return nil, err
	}
	in.StockVMT, err = cached(l, s, config.FileStockVMT, fleet.ContextStockVMTTemplate, func(t *table.Table) (fleet.ContextStockVMT, error) {
		return fleet.ContextStockVMTFromTable(t, b.ContextName, b.ContextCase)
	})
	if err != nil {
		return nil, err
	}
	if b.HasPath(s, config.FileRefineryRates) {
		in.Refinery, err = cached(l, s, config.FileRefineryRates, rates.RefineryTemplate, func(t *table.Table) (rates.Refinery, error) {
			return rates.RefineryEquationsFromTable(t)
		})
	} else {
		in.Refinery, err = cached(l, s, config.FileRefineryFactors, rates.RefineryFactorsTemplate, func(t *table.Table) (rates.Refinery, error) {
			return rates.RefineryFactorsFromTable(t)
		})
	}
	if err != nil {
		return nil, err
	}
	if in.EGU, err = cached(l, s, config.FileEGURates, rates.EGUTemplate, rates.EGUFromTable); err != nil {
		return nil, err
	}
	in.SCC, err = cached(l, s, config.FileSCCCosts, factors.SCCTemplate, func(t *table.Table) (*factors.SCC, error) {
		return factors.SCCFromTable(t, implicit, b.DollarBasis)
	})
	if err != nil {
		return nil, err
	}
	if b.HasPath(s, config.FileCriteriaCosts) {
		in.Criteria, err = cached(l, s, config.FileCriteriaCosts, factors.CriteriaTemplate, func(t *table.Table) (*factors.Criteria, error) {
			return factors.CriteriaFromTable(t, cpi, b.DollarBasis)
		})
		if err != nil {
			return nil, err
		}
	}
	if in.Legacy, err = l.Legacy(s, in.Effects.Onroad); err != nil {
		return nil, err
	}

	if !b.HasPath(s, config.FileVehicles) {
		if s.Policy != model.PolicyContext {
			return nil, fmt.Errorf("session %s: no %s", s.Name, config.FileVehicles)
		}
		in.Vehicles = fleet.Registry{}
		return in, nil
	}
	in.Vehicles, err = cached(l, s, config.FileVehicles, fleet.VehiclesTemplate, func(t *table.Table) (fleet.Registry, error) {
		return fleet.VehiclesFromTable(t, l.Region, implicit, b.DollarBasis)
	})
	if err != nil {
		return nil, err
	}
	reg := in.Vehicles
	in.Annual, err = cached(l, s, config.FileVehicleAnnualData, fleet.AnnualDataTemplate, func(t *table.Table) ([]model.AnnualDatum, error) {
		return fleet.AnnualDataFromTable(t, reg, b.FirstYear(), b.FinalYear)
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}
