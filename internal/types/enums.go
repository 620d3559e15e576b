package types

// ContextMode classifies the analytical situation of one request.
type ContextMode string

const (
	ModeAllPeers      ContextMode = "ALL_PEERS"
	ModeSingleSubject ContextMode = "SINGLE_SUBJECT"
	ModeSubsetOfPeers ContextMode = "SUBSET_OF_PEERS"
	// ModeNoData marks a context with zero groups. It is never a valid
	// input to rules or templates.
	ModeNoData ContextMode = "NO_DATA"
)

// IsMultiGroup reports whether the mode compares two or more groups.
func (m ContextMode) IsMultiGroup() bool {
	return m == ModeAllPeers || m == ModeSubsetOfPeers
}

// InsightKind tags the insight variant a rule produced.
type InsightKind string

const (
	KindRanking     InsightKind = "ranking"
	KindPositioning InsightKind = "positioning"
	KindVariation   InsightKind = "variation"
	KindCorrelation InsightKind = "correlation"
	KindOutlier     InsightKind = "outlier"
	KindGap         InsightKind = "gap"
	KindInequality  InsightKind = "inequality"
)

// RuleID identifies a registered rule. MetricConfig lists these.
type RuleID string

const (
	RuleRanking         RuleID = "ranking"
	RulePositioning     RuleID = "single_subject_positioning"
	RuleVariation       RuleID = "variation"
	RuleCorrelation     RuleID = "correlation"
	RuleOutlier         RuleID = "outlier"
	RuleGapToInvestment RuleID = "gap_to_investment"
	RuleInequality      RuleID = "inequality"
)

// PayloadState distinguishes a full narrative from the signalled outcomes.
type PayloadState string

const (
	StateOK                   PayloadState = "ok"
	StateNoDataForFilter      PayloadState = "no_data_for_filter"
	StateMetricUnavailable    PayloadState = "metric_unavailable"
	StateInsufficientEvidence PayloadState = "insufficient_evidence"
)

// BlockRole is where a rendered text block belongs in a layout.
type BlockRole string

const (
	RoleSummary        BlockRole = "summary"
	RoleKeyFinding     BlockRole = "key_finding"
	RoleRecommendation BlockRole = "recommendation"
)
