// Package analytics derives statistics from in-memory gap collections. Every
// function is pure: inputs are never mutated and results share no state.
package analytics

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/gosuda/auditor/internal/domain"
)

// SessionStats summarizes a gap collection.
type SessionStats struct {
	TotalGaps              int                                `json:"total_gaps"`
	ByRiskLevel            map[domain.RiskLevel]int           `json:"by_risk_level"`
	ByBusinessImpact       map[domain.BusinessImpactLevel]int `json:"by_business_impact"`
	ByStatus               map[domain.GapStatus]int           `json:"by_status"`
	OpenGaps               int                                `json:"open_gaps"`
	ClosedGaps             int                                `json:"closed_gaps"`
	RegulatoryGaps         int                                `json:"regulatory_gaps"`
	TotalPotentialFines    decimal.Decimal                    `json:"total_potential_fines"`
	AverageConfidenceScore float64                            `json:"average_confidence_score"`
	ResolutionRate         float64                            `json:"resolution_rate"`
}

func newSessionStats() SessionStats {
	s := SessionStats{
		ByRiskLevel:         make(map[domain.RiskLevel]int, 4),
		ByBusinessImpact:    make(map[domain.BusinessImpactLevel]int, 4),
		ByStatus:            make(map[domain.GapStatus]int, 6),
		TotalPotentialFines: decimal.Zero,
	}
	for _, r := range domain.RiskLevels() {
		s.ByRiskLevel[r] = 0
	}
	for _, b := range domain.BusinessImpactLevels() {
		s.ByBusinessImpact[b] = 0
	}
	for _, st := range domain.GapStatuses() {
		s.ByStatus[st] = 0
	}
	return s
}

// ComputeStats aggregates gaps into risk, impact and status buckets, fine
// totals and the mean confidence score. Records with out-of-set enum values
// are left out of the affected bucket; see ComputeStatsReport.
func ComputeStats(gaps []*domain.ComplianceGap) SessionStats {
	stats, _ := ComputeStatsReport(gaps)
	return stats
}

// ComputeStatsReport is ComputeStats plus the list of records that could not
// be bucketed. A malformed record is isolated per field: it still counts
// toward the total, fines and confidence, but not toward the bucket whose
// enum it violates.
func ComputeStatsReport(gaps []*domain.ComplianceGap) (SessionStats, []*domain.AggregationError) {
	stats := newSessionStats()
	var problems []*domain.AggregationError

	var confidenceSum float64
	for _, g := range gaps {
		if g == nil {
			continue
		}
		stats.TotalGaps++

		if g.RiskLevel.Valid() {
			stats.ByRiskLevel[g.RiskLevel]++
		} else {
			problems = append(problems, &domain.AggregationError{GapID: g.ID.String(), Field: "risk_level", Value: string(g.RiskLevel)})
		}

		if g.BusinessImpact.Valid() {
			stats.ByBusinessImpact[g.BusinessImpact]++
		} else {
			problems = append(problems, &domain.AggregationError{GapID: g.ID.String(), Field: "business_impact", Value: string(g.BusinessImpact)})
		}

		switch {
		case g.Status.IsOpen():
			stats.ByStatus[g.Status]++
			stats.OpenGaps++
		case g.Status.IsClosed():
			stats.ByStatus[g.Status]++
			stats.ClosedGaps++
		default:
			problems = append(problems, &domain.AggregationError{GapID: g.ID.String(), Field: "status", Value: string(g.Status)})
		}

		if g.RegulatoryRequirement {
			stats.RegulatoryGaps++
		}
		if g.PotentialFineAmount != nil {
			stats.TotalPotentialFines = stats.TotalPotentialFines.Add(*g.PotentialFineAmount)
		}
		if g.ConfidenceScore != nil {
			confidenceSum += *g.ConfidenceScore
		}
	}

	if stats.TotalGaps > 0 {
		stats.AverageConfidenceScore = confidenceSum / float64(stats.TotalGaps)
		stats.ResolutionRate = float64(stats.ClosedGaps) / float64(stats.TotalGaps)
	}

	return stats, problems
}

// DomainStats is SessionStats scoped to one compliance domain.
type DomainStats struct {
	ComplianceDomain string       `json:"compliance_domain"`
	Stats            SessionStats `json:"stats"`
}

// StatsByDomain computes SessionStats per compliance domain, ordered by domain code.
func StatsByDomain(gaps []*domain.ComplianceGap) []DomainStats {
	byDomain := make(map[string][]*domain.ComplianceGap)
	var order []string
	for _, g := range gaps {
		if g == nil {
			continue
		}
		if _, seen := byDomain[g.ComplianceDomain]; !seen {
			order = append(order, g.ComplianceDomain)
		}
		byDomain[g.ComplianceDomain] = append(byDomain[g.ComplianceDomain], g)
	}

	slices.Sort(order)

	out := make([]DomainStats, 0, len(order))
	for _, d := range order {
		out = append(out, DomainStats{ComplianceDomain: d, Stats: ComputeStats(byDomain[d])})
	}
	return out
}
