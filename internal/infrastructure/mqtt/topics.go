package mqtt

import "fmt"

// TopicPrefix is the root of every FireCAD topic.
//
//	firecad/analysis/{id}/summary      device summary (retained)
//	firecad/analysis/{id}/validation   standards report (retained)
//	firecad/analysis/{id}/warnings     analysis warnings
//	firecad/site/{site}/inventory      latest inventory for a site (retained)
//	firecad/request/analyze            analysis requests
//	firecad/system/status              online/offline (retained, LWT)
const TopicPrefix = "firecad"

// Topics builds FireCAD topic strings.
type Topics struct{}

// AnalysisSummary is where the device summary for an analysis is published.
func (Topics) AnalysisSummary(analysisID string) string {
	return fmt.Sprintf("%s/analysis/%s/summary", TopicPrefix, analysisID)
}

// AnalysisValidation is where the standards report for an analysis is published.
func (Topics) AnalysisValidation(analysisID string) string {
	return fmt.Sprintf("%s/analysis/%s/validation", TopicPrefix, analysisID)
}

// AnalysisWarnings carries the warnings raised during an analysis.
func (Topics) AnalysisWarnings(analysisID string) string {
	return fmt.Sprintf("%s/analysis/%s/warnings", TopicPrefix, analysisID)
}

// SiteInventory holds the latest inventory for a site.
func (Topics) SiteInventory(siteID string) string {
	return fmt.Sprintf("%s/site/%s/inventory", TopicPrefix, siteID)
}

// AnalyzeRequest receives analysis requests.
func (Topics) AnalyzeRequest() string {
	return TopicPrefix + "/request/analyze"
}

// SystemStatus carries the retained online/offline status.
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}
