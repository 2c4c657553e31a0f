package domain

import "strconv"

// RiskLevel is the assessed severity of a gap. Ordered low < medium < high < critical.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// RiskLevels lists every risk level in ascending severity.
func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical}
}

// Rank returns 1..4 for known levels and 0 for anything else.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLevelLow:
		return 1
	case RiskLevelMedium:
		return 2
	case RiskLevelHigh:
		return 3
	case RiskLevelCritical:
		return 4
	default:
		return 0
	}
}

func (r RiskLevel) Valid() bool { return r.Rank() > 0 }

// ParseRiskLevel rejects values outside the closed set.
func ParseRiskLevel(s string) (RiskLevel, error) {
	r := RiskLevel(s)
	if !r.Valid() {
		return "", NewValidationError("risk_level", "unknown risk level "+strconv.Quote(s))
	}
	return r, nil
}

// BusinessImpactLevel is the assessed business impact of a gap. Same order as RiskLevel.
type BusinessImpactLevel string

const (
	BusinessImpactLow      BusinessImpactLevel = "low"
	BusinessImpactMedium   BusinessImpactLevel = "medium"
	BusinessImpactHigh     BusinessImpactLevel = "high"
	BusinessImpactCritical BusinessImpactLevel = "critical"
)

// BusinessImpactLevels lists every impact level in ascending severity.
func BusinessImpactLevels() []BusinessImpactLevel {
	return []BusinessImpactLevel{BusinessImpactLow, BusinessImpactMedium, BusinessImpactHigh, BusinessImpactCritical}
}

func (b BusinessImpactLevel) Rank() int {
	switch b {
	case BusinessImpactLow:
		return 1
	case BusinessImpactMedium:
		return 2
	case BusinessImpactHigh:
		return 3
	case BusinessImpactCritical:
		return 4
	default:
		return 0
	}
}

func (b BusinessImpactLevel) Valid() bool { return b.Rank() > 0 }

func ParseBusinessImpact(s string) (BusinessImpactLevel, error) {
	b := BusinessImpactLevel(s)
	if !b.Valid() {
		return "", NewValidationError("business_impact", "unknown business impact "+strconv.Quote(s))
	}
	return b, nil
}

type GapType string

const (
	GapTypeMissingPolicy       GapType = "missing_policy"
	GapTypeOutdatedPolicy      GapType = "outdated_policy"
	GapTypeLowConfidence       GapType = "low_confidence"
	GapTypeConflictingPolicies GapType = "conflicting_policies"
	GapTypeIncompleteCoverage  GapType = "incomplete_coverage"
	GapTypeNoEvidence          GapType = "no_evidence"
)

func (t GapType) Valid() bool {
	switch t {
	case GapTypeMissingPolicy, GapTypeOutdatedPolicy, GapTypeLowConfidence,
		GapTypeConflictingPolicies, GapTypeIncompleteCoverage, GapTypeNoEvidence:
		return true
	default:
		return false
	}
}

func ParseGapType(s string) (GapType, error) {
	t := GapType(s)
	if !t.Valid() {
		return "", NewValidationError("gap_type", "unknown gap type "+strconv.Quote(s))
	}
	return t, nil
}

// GapStatus is the remediation workflow state of a gap. Unordered; partitioned
// into open and closed.
type GapStatus string

const (
	GapStatusIdentified    GapStatus = "identified"
	GapStatusAcknowledged  GapStatus = "acknowledged"
	GapStatusInProgress    GapStatus = "in_progress"
	GapStatusResolved      GapStatus = "resolved"
	GapStatusFalsePositive GapStatus = "false_positive"
	GapStatusAcceptedRisk  GapStatus = "accepted_risk"
)

// GapStatuses lists every status, open ones first.
func GapStatuses() []GapStatus {
	return []GapStatus{
		GapStatusIdentified, GapStatusAcknowledged, GapStatusInProgress,
		GapStatusResolved, GapStatusFalsePositive, GapStatusAcceptedRisk,
	}
}

func (s GapStatus) Valid() bool {
	return s.IsOpen() || s.IsClosed()
}

// IsOpen reports membership in {identified, acknowledged, in_progress}.
func (s GapStatus) IsOpen() bool {
	switch s {
	case GapStatusIdentified, GapStatusAcknowledged, GapStatusInProgress:
		return true
	default:
		return false
	}
}

// IsClosed reports membership in {resolved, false_positive, accepted_risk}.
func (s GapStatus) IsClosed() bool {
	switch s {
	case GapStatusResolved, GapStatusFalsePositive, GapStatusAcceptedRisk:
		return true
	default:
		return false
	}
}

// ValidTransition reports whether a gap may move from s to the target status.
// Remediation workflows may reopen or skip states freely, so any known status
// may move to any known status.
func (s GapStatus) ValidTransition(to GapStatus) bool {
	return to.Valid()
}

func ParseGapStatus(s string) (GapStatus, error) {
	st := GapStatus(s)
	if !st.Valid() {
		return "", NewValidationError("status", "unknown gap status "+strconv.Quote(s))
	}
	return st, nil
}

type DetectionMethod string

const (
	DetectionQueryAnalysis  DetectionMethod = "query_analysis"
	DetectionPeriodicScan   DetectionMethod = "periodic_scan"
	DetectionDocumentUpload DetectionMethod = "document_upload"
	DetectionManualReview   DetectionMethod = "manual_review"
	DetectionExternalAudit  DetectionMethod = "external_audit"
)

func (d DetectionMethod) Valid() bool {
	switch d {
	case DetectionQueryAnalysis, DetectionPeriodicScan, DetectionDocumentUpload,
		DetectionManualReview, DetectionExternalAudit:
		return true
	default:
		return false
	}
}

func ParseDetectionMethod(s string) (DetectionMethod, error) {
	d := DetectionMethod(s)
	if !d.Valid() {
		return "", NewValidationError("detection_method", "unknown detection method "+strconv.Quote(s))
	}
	return d, nil
}

type RecommendationType string

const (
	RecommendationCreatePolicy       RecommendationType = "create_policy"
	RecommendationUpdatePolicy       RecommendationType = "update_policy"
	RecommendationUploadDocument     RecommendationType = "upload_document"
	RecommendationTrainingNeeded     RecommendationType = "training_needed"
	RecommendationProcessImprovement RecommendationType = "process_improvement"
	RecommendationTechnologySolution RecommendationType = "technology_solution"
)

func (r RecommendationType) Valid() bool {
	switch r {
	case RecommendationCreatePolicy, RecommendationUpdatePolicy, RecommendationUploadDocument,
		RecommendationTrainingNeeded, RecommendationProcessImprovement, RecommendationTechnologySolution:
		return true
	default:
		return false
	}
}

func ParseRecommendationType(s string) (RecommendationType, error) {
	r := RecommendationType(s)
	if !r.Valid() {
		return "", NewValidationError("recommendation_type", "unknown recommendation type "+strconv.Quote(s))
	}
	return r, nil
}

// DocumentRole tags how a document relates to an audit session.
type DocumentRole string

const (
	DocumentRoleReference      DocumentRole = "reference"
	DocumentRoleImplementation DocumentRole = "implementation"
	DocumentRoleAssessment     DocumentRole = "assessment"
	DocumentRoleOther          DocumentRole = "other"
)

func (r DocumentRole) Valid() bool {
	switch r {
	case DocumentRoleReference, DocumentRoleImplementation, DocumentRoleAssessment, DocumentRoleOther:
		return true
	default:
		return false
	}
}
