package config

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kilianp07/fleeteffects/core/model"
)

// Batch-level parameters.
const (
	ParamBatchName      = "Batch Name"
	ParamBatchFolder    = "batch_folder"
	ParamBaseYear       = "Vehicles File Base Year"
	ParamFinalYear      = "Analysis Final Year"
	ParamCostAccrual    = "Cost Accrual"
	ParamDiscountToYear = "Discount Values to Year"
	ParamDollarBasis    = "Analysis Dollar Basis"
	ParamContextName    = "Context Name"
	ParamContextCase    = "Context Case"
	ParamReboundICE     = "VMT Rebound Rate ICE"
	ParamReboundBEV     = "VMT Rebound Rate BEV"
	ParamSCCScope       = "SC-GHG in Net Benefits"
	ParamSessionName    = "Session Name"
)

// Input file parameters. Each may be overridden per session.
const (
	FileImplicitDeflators    = "Context Implicit Price Deflators File"
	FileCPIDeflators         = "Context CPI Price Deflators File"
	FileGeneralInputs        = "General Inputs for Effects File"
	FileFuelPrices           = "Context Fuel Prices File"
	FileStockVMT             = "Context Stock and VMT File"
	FileOnroadFuels          = "Onroad Fuels File"
	FileLegacyFleet          = "Legacy Fleet File"
	FileReregistration       = "Context Reregistration File"
	FileAnnualVMT            = "Context Annual VMT File"
	FileFatalityRates        = "Fatality Rates File"
	FileSafetyValues         = "Safety Values File"
	FileVehicleRates         = "Vehicle Emission Rates File"
	FileRefineryRates        = "Context Refinery Emission Rates File"
	FileRefineryFactors      = "Context Refinery Emission Factors File"
	FileEGURates             = "Context Powersector Emission Rates File"
	FileCriteriaCosts        = "Criteria Cost Factors File"
	FileSCCCosts             = "SC-GHG Cost Factors File"
	FileEnergySecurityCosts  = "Energy Security Cost Factors File"
	FileCongestionNoiseCosts = "Congestion and Noise Cost Factors File"
	FilePowertrainCosts      = "Powertrain Costs File"
	FileMaintenanceCosts     = "Maintenance Costs File"
	FileRepairCosts          = "Repair Costs File"
	FileRefuelingCosts       = "Refueling Costs File"
	FileVehicles             = "Vehicles File"
	FileVehicleAnnualData    = "Vehicle Annual Data File"
)

// RequiredFiles must resolve for every session.
var RequiredFiles = []string{
	FileImplicitDeflators, FileCPIDeflators, FileGeneralInputs, FileFuelPrices, FileStockVMT,
	FileOnroadFuels, FileLegacyFleet, FileReregistration, FileAnnualVMT, FileFatalityRates,
	FileSafetyValues, FileVehicleRates, FileEGURates, FileSCCCosts, FileEnergySecurityCosts,
	FileCongestionNoiseCosts, FilePowertrainCosts, FileMaintenanceCosts, FileRepairCosts,
	FileRefuelingCosts,
}

// SCC scopes reported in the social effects tables.
const (
	SCCGlobal   = "global"
	SCCDomestic = "domestic"
	SCCBoth     = "both"
)

// PolicyAll marks a batch-level row.
const PolicyAll = "all"

var knownPolicies = map[string]bool{
	PolicyAll: true, string(model.PolicyContext): true, string(model.PolicyNoAction): true,
	"action_1": true, "action_2": true, "action_3": true, "action_4": true,
	"action_5": true, "action_6": true, "action_7": true,
}

// SessionSettings are the parameters of one session.
type SessionSettings struct {
	Policy model.SessionPolicy
	Name   string
	Files  map[string]string
}

// BatchSettings is the parsed batch settings file.
type BatchSettings struct {
	Name           string
	Folder         string
	BaseYear       int
	FinalYear      int
	CostAccrual    string
	DiscountToYear int
	DollarBasis    int
	ContextName    string
	ContextCase    string
	ReboundICE     float64
	ReboundBEV     float64
	SCCScope       string
	Files          map[string]string
	// Sessions are ordered context, no_action, then actions.
	Sessions []SessionSettings
}

// FirstYear is the first calendar year of the analysis window.
func (b *BatchSettings) FirstYear() int { return b.BaseYear + 1 }

// Path resolves a file parameter, preferring the session override.
func (b *BatchSettings) Path(s SessionSettings, param string) (string, error) {
	if p, ok := s.Files[param]; ok && p != "" {
		return p, nil
	}
	if p, ok := b.Files[param]; ok && p != "" {
		return p, nil
	}
	return "", fmt.Errorf("batch settings: no %q for session %s", param, s.Name)
}

// HasPath reports whether a file parameter resolves for the session.
func (b *BatchSettings) HasPath(s SessionSettings, param string) bool {
	_, err := b.Path(s, param)
	return err == nil
}

// Session returns the settings of a policy.
func (b *BatchSettings) Session(p model.SessionPolicy) (SessionSettings, bool) {
	for _, s := range b.Sessions {
		if s.Policy == p {
			return s, true
		}
	}
	return SessionSettings{}, false
}

// Scopes lists the GHG scopes to report.
func (b *BatchSettings) Scopes() []string {
	switch b.SCCScope {
	case SCCGlobal:
		return []string{SCCGlobal}
	case SCCDomestic:
		return []string{SCCDomestic}
	}
	return []string{SCCGlobal, SCCDomestic}
}

type entry struct {
	value, path string
}

// LoadBatchSettings reads the batch settings CSV. Relative paths resolve
// against the settings file directory.
func LoadBatchSettings(path string) (*BatchSettings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("batch settings: %w", err)
	}
	defer f.Close()
	return ParseBatchSettings(f, filepath.Dir(path))
}

// ParseBatchSettings reads batch settings from r.
func ParseBatchSettings(r io.Reader, baseDir string) (*BatchSettings, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("batch settings: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 && strings.TrimPrefix(strings.TrimSpace(records[0][0]), "\ufeff") == "input_template_name" {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, errors.New("batch settings: empty file")
	}
	idx := map[string]int{}
	for i, h := range records[0] {
		idx[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}
	for _, c := range []string{"parameter", "session_policy", "value", "full_path"} {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("batch settings: missing column %s", c)
		}
	}
	cell := func(rec []string, c string) string {
		if i := idx[c]; i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	rows := map[string]map[string]entry{}
	for n, rec := range records[1:] {
		param := cell(rec, "parameter")
		if param == "" {
			continue
		}
		policy := cell(rec, "session_policy")
		if policy == "" {
			policy = PolicyAll
		}
		if !knownPolicies[policy] {
			return nil, fmt.Errorf("batch settings line %d: unknown session_policy %q", n+3, policy)
		}
		p := cell(rec, "full_path")
		if p != "" && !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		if rows[policy] == nil {
			rows[policy] = map[string]entry{}
		}
		rows[policy][param] = entry{value: cell(rec, "value"), path: p}
	}
	return build(rows, baseDir)
}

func build(rows map[string]map[string]entry, baseDir string) (*BatchSettings, error) {
	all := rows[PolicyAll]
	b := &BatchSettings{Files: map[string]string{}}
	str := func(param string) string { return all[param].value }
	var errs []error
	num := func(param string) int {
		v, err := strconv.ParseFloat(str(param), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a number", param, str(param)))
			return 0
		}
		return int(v)
	}
	float := func(param string) float64 {
		v, err := strconv.ParseFloat(str(param), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a number", param, str(param)))
		}
		return v
	}

	b.Name = str(ParamBatchName)
	b.Folder = all[ParamBatchFolder].path
	if b.Folder == "" {
		b.Folder = str(ParamBatchFolder)
	}
	if b.Folder == "" {
		b.Folder = baseDir
	}
	if b.Name == "" {
		b.Name = filepath.Base(b.Folder)
	}
	b.BaseYear = num(ParamBaseYear)
	b.FinalYear = num(ParamFinalYear)
	b.CostAccrual = str(ParamCostAccrual)
	b.DollarBasis = num(ParamDollarBasis)
	b.DiscountToYear = b.FirstYear()
	if str(ParamDiscountToYear) != "" {
		b.DiscountToYear = num(ParamDiscountToYear)
	}
	b.ContextName = str(ParamContextName)
	b.ContextCase = str(ParamContextCase)
	b.ReboundICE = float(ParamReboundICE)
	b.ReboundBEV = float(ParamReboundBEV)
	b.SCCScope = strings.ToLower(str(ParamSCCScope))
	if b.SCCScope == "" {
		b.SCCScope = SCCBoth
	}
	for param, e := range all {
		if e.path != "" && param != ParamBatchFolder {
			b.Files[param] = e.path
		}
	}

	policies := make([]string, 0, len(rows))
	for p := range rows {
		if p != PolicyAll {
			policies = append(policies, p)
		}
	}
	sort.Slice(policies, func(i, j int) bool { return policyRank(policies[i]) < policyRank(policies[j]) })
	for _, p := range policies {
		s := SessionSettings{Policy: model.SessionPolicy(p), Name: rows[p][ParamSessionName].value, Files: map[string]string{}}
		if s.Name == "" {
			s.Name = p
		}
		for param, e := range rows[p] {
			if e.path != "" {
				s.Files[param] = e.path
			}
		}
		b.Sessions = append(b.Sessions, s)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("batch settings: %w", err)
	}
	return b, b.Validate()
}

func policyRank(p string) string {
	switch model.SessionPolicy(p) {
	case model.PolicyContext:
		return "0"
	case model.PolicyNoAction:
		return "1"
	}
	return "2" + p
}

// Validate checks the analysis window and session set.
func (b *BatchSettings) Validate() error {
	if b.FinalYear <= b.BaseYear {
		return fmt.Errorf("batch settings: %s %d must follow %s %d", ParamFinalYear, b.FinalYear, ParamBaseYear, b.BaseYear)
	}
	if b.DollarBasis <= 0 {
		return fmt.Errorf("batch settings: %s is required", ParamDollarBasis)
	}
	switch b.SCCScope {
	case SCCGlobal, SCCDomestic, SCCBoth:
	default:
		return fmt.Errorf("batch settings: %s must be global, domestic or both", ParamSCCScope)
	}
	if _, ok := b.Session(model.PolicyNoAction); !ok {
		return errors.New("batch settings: a no_action session is required")
	}
	for _, s := range b.Sessions {
		var missing []string
		for _, param := range RequiredFiles {
			if !b.HasPath(s, param) {
				missing = append(missing, param)
			}
		}
		if s.Policy != model.PolicyContext {
			for _, param := range []string{FileVehicles, FileVehicleAnnualData} {
				if !b.HasPath(s, param) {
					missing = append(missing, param)
				}
			}
		}
		if !b.HasPath(s, FileRefineryRates) && !b.HasPath(s, FileRefineryFactors) {
			missing = append(missing, FileRefineryRates)
		}
		if len(missing) > 0 {
			return fmt.Errorf("batch settings: session %s missing %s", s.Name, strings.Join(missing, ", "))
		}
	}
	return nil
}
