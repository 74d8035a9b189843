package app

import (
	"fmt"

	"github.com/kilianp07/fleeteffects/core/batch"
	"github.com/kilianp07/fleeteffects/pkg/export"
)

// Output names, prefixed with the run timestamp when written.
const (
	OutSafetySummary    = "safety_effects_summary"
	OutPhysical         = "physical_effects_annual"
	OutPhysicalDelta    = "physical_effects_annual_action_minus_no_action"
	OutCost             = "cost_effects_annual"
	OutBenefits         = "benefits_annual"
	OutConsumerPhysical = "MY_period_physical_effects"
	OutConsumerCost     = "MY_period_costs"
)

// SocialOutput names the social effects table of a GHG scope.
func SocialOutput(scope string) string { return fmt.Sprintf("social_effects_%s_ghg_annual", scope) }

func (s *Service) writeOutputs(w export.Writer, res *batch.Results) ([]string, error) {
	var out []string
	add := func(path string, err error) error {
		if err != nil {
			return err
		}
		s.log.Infof("Wrote %s", path)
		out = append(out, path)
		return nil
	}
	o := s.cfg.Output
	if *o.SaveSafetySummary {
		if err := add(w.WriteFrame(OutSafetySummary, res.Safety)); err != nil {
			return out, err
		}
	}
	if err := add(w.WriteFrame(OutPhysical, res.Physical)); err != nil {
		return out, err
	}
	if err := add(w.WriteFrame(OutPhysicalDelta, res.PhysicalDelta)); err != nil {
		return out, err
	}
	if err := add(w.WriteDiscounted(OutCost, res.Cost)); err != nil {
		return out, err
	}
	if err := add(w.WriteDiscounted(OutBenefits, res.Benefits)); err != nil {
		return out, err
	}
	for _, social := range res.Social {
		if err := add(w.WriteSocial(SocialOutput(social.Scope), social.Columns, social.Rows)); err != nil {
			return out, err
		}
	}
	if *o.SaveConsumerView {
		if err := add(w.WriteConsumer(OutConsumerPhysical, res.ConsumerPhysical)); err != nil {
			return out, err
		}
		if err := add(w.WriteConsumer(OutConsumerCost, res.ConsumerCost)); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (s *Service) manifest(res *batch.Results, loaded []batch.LoadedTable, folders map[string]string, outputs []string) export.Manifest {
	m := export.Manifest{
		Batch:    s.batch.Name,
		RunID:    s.banner.RunID,
		Started:  res.Started,
		Finished: res.Finished,
		Outputs:  outputs,
	}
	for _, lt := range loaded {
		m.Inputs = append(m.Inputs, export.ManifestInput{Template: lt.Template, Path: lt.Path, Modified: lt.Modified, Rows: lt.Rows})
	}
	for _, sr := range res.Sessions {
		run := export.ManifestRun{
			Policy: string(sr.Settings.Policy),
			Name:   sr.Settings.Name,
			Folder: folders[sr.Settings.Name],
			Failed: sr.Failed(),
		}
		if sr.Err != nil {
			run.Error = sr.Err.Error()
		}
		m.Sessions = append(m.Sessions, run)
	}
	return m
}
