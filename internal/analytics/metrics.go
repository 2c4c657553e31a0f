package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/gosuda/auditor/internal/domain"
)

// Severity-indexed business constants. These are fixed lookup tables, not
// configuration; downstream reports depend on the exact values.
var (
	//nolint:gochecknoglobals // lookup table
	defaultFineByRisk = map[domain.RiskLevel]int64{
		domain.RiskLevelCritical: 100000,
		domain.RiskLevelHigh:     50000,
		domain.RiskLevelMedium:   25000,
		domain.RiskLevelLow:      10000,
	}

	//nolint:gochecknoglobals // lookup table
	remediationDaysByRisk = map[domain.RiskLevel]int{
		domain.RiskLevelCritical: 30,
		domain.RiskLevelHigh:     21,
		domain.RiskLevelMedium:   14,
		domain.RiskLevelLow:      7,
	}

	//nolint:gochecknoglobals // lookup table
	processImpactByImpact = map[domain.BusinessImpactLevel]int{
		domain.BusinessImpactCritical: 90,
		domain.BusinessImpactHigh:     70,
		domain.BusinessImpactMedium:   50,
		domain.BusinessImpactLow:      30,
	}
)

// BusinessMetrics is the per-gap business impact estimate.
type BusinessMetrics struct {
	CostOfNonCompliance   decimal.Decimal `json:"cost_of_non_compliance"`
	RemediationEffortDays int             `json:"remediation_effort_days"`
	ProcessImpactPercent  int             `json:"process_impact_percent"`
}

// ComputeBusinessMetrics estimates cost, effort and process impact for a gap.
// A non-zero potential fine is used as the cost; otherwise the cost falls back
// to the table value for the gap's risk level. Unknown levels yield zero.
func ComputeBusinessMetrics(g *domain.ComplianceGap) BusinessMetrics {
	if g == nil {
		return BusinessMetrics{CostOfNonCompliance: decimal.Zero}
	}

	cost := decimal.NewFromInt(defaultFineByRisk[g.RiskLevel])
	if g.PotentialFineAmount != nil && !g.PotentialFineAmount.IsZero() {
		cost = *g.PotentialFineAmount
	}

	return BusinessMetrics{
		CostOfNonCompliance:   cost,
		RemediationEffortDays: remediationDaysByRisk[g.RiskLevel],
		ProcessImpactPercent:  processImpactByImpact[g.BusinessImpact],
	}
}
