package firesafety

import (
	"fmt"
	"strings"
)

// Recommendation texts.
const (
	recMissingLayers   = "Add missing fire safety layers: %s"
	recNotOrganized    = "No fire safety layers detected; place fire safety devices on dedicated layers such as E-FIRE"
	recFollowsStandard = "Layer organization follows standards"
)

// ValidateStandards checks layer names against the AIA naming table and
// the curated fire-safety layer list.
func ValidateStandards(layerNames []string) ValidationReport {
	report := ValidationReport{
		AIACompliance:         make(map[string]bool, len(layerNames)),
		MissingCriticalLayers: []string{},
		Recommendations:       []string{},
		FireSafetyOrganization: Organization{
			PresentLayers: []string{},
		},
	}

	present := make(map[string]bool, len(layerNames))
	for _, name := range layerNames {
		present[name] = true
		_, ok := aiaLayers[name]
		report.AIACompliance[name] = ok
	}

	for _, name := range curatedFireLayers {
		if present[name] {
			report.FireSafetyOrganization.PresentLayers = append(report.FireSafetyOrganization.PresentLayers, name)
		} else {
			report.MissingCriticalLayers = append(report.MissingCriticalLayers, name)
		}
	}
	report.FireSafetyOrganization.Organized = len(report.FireSafetyOrganization.PresentLayers) > 0

	if len(report.MissingCriticalLayers) > 0 {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf(recMissingLayers, strings.Join(report.MissingCriticalLayers, ", ")))
	}
	if !report.FireSafetyOrganization.Organized {
		report.Recommendations = append(report.Recommendations, recNotOrganized)
	}
	if len(report.Recommendations) == 0 {
		report.Recommendations = append(report.Recommendations, recFollowsStandard)
	}

	return report
}
