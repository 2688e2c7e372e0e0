package domain

import "time"

// DefaultThresholds is the canonical candidate list of minimum delays, in minutes.
// It is sorted ascending; deltas are taken against the previous list element.
var DefaultThresholds = []float64{10, 20, 40, 60, 80, 100, 120, 140}

// ThresholdMetric is the aggregate for one (checkin filter, threshold) pair.
type ThresholdMetric struct {
	Checkin     CheckinFilter `json:"checkin"`
	Threshold   float64       `json:"threshold"`
	Total       int           `json:"total"`
	Blocked     int           `json:"blocked"`
	NotBlocked  int           `json:"notBlocked"`
	AtRiskTotal int           `json:"atRiskTotal"`
	Solved      int           `json:"solved"`
	Unsolved    int           `json:"unsolved"`

	// RiskPct is the share of rentals hidden by the threshold, in percent.
	RiskPct float64 `json:"riskPct"`

	// Delta is RiskPct minus the RiskPct of the previous threshold in the candidate list.
	Delta             float64  `json:"delta"`
	PreviousThreshold *float64 `json:"previousThreshold,omitempty"`
}

// CurvePoint is one point of the threshold sweep.
type CurvePoint struct {
	Threshold float64 `json:"threshold"`
	RiskPct   float64 `json:"riskPct"`
}

// Report is the full result of one analysis request.
type Report struct {
	ID             string          `json:"id"`
	DatasetVersion string          `json:"datasetVersion"`
	Segment        string          `json:"segment,omitempty"`
	Metric         ThresholdMetric `json:"metric"`
	Curve          []CurvePoint    `json:"curve"`
	Thresholds     []float64       `json:"thresholds"`
	GeneratedAt    time.Time       `json:"generatedAt"`
	Metadata       ReportMetadata  `json:"metadata"`
}

// ReportMetadata contains processing information.
type ReportMetadata struct {
	TraceID        string `json:"traceId,omitempty"`
	RecordsScanned int    `json:"recordsScanned"`
	ComputeMs      int64  `json:"computeMs"`
	EngineVersion  string `json:"engineVersion"`
}

// DelayBreakdown describes checkout delays per check-in type and severity.
type DelayBreakdown struct {
	Checkin CheckinFilter     `json:"checkin"`
	Total   int               `json:"total"`
	Groups  []BreakdownGroup  `json:"groups"`
	Stats   []DelayStatistics `json:"stats"`
}

// BreakdownGroup counts rentals of one check-in type in one delay category.
type BreakdownGroup struct {
	CheckinType CheckinType   `json:"checkinType"`
	Category    DelayCategory `json:"category"`
	Count       int           `json:"count"`
	Share       float64       `json:"share"` // percent of all rentals in the breakdown
}

// DelayStatistics summarises checkout delays for one check-in type.
type DelayStatistics struct {
	CheckinType CheckinType `json:"checkinType"`
	Count       int         `json:"count"`
	MeanDelay   float64     `json:"meanDelay"`
	MedianDelay float64     `json:"medianDelay"`
	P90Delay    float64     `json:"p90Delay"`
	LateShare   float64     `json:"lateShare"` // percent of rentals returned late
}
