package analytics

import (
	"cmp"
	"slices"

	"github.com/gosuda/auditor/internal/domain"
)

// compareDetectedDesc orders the most recently detected gap first.
func compareDetectedDesc(a, b *domain.ComplianceGap) int {
	return b.DetectedAt.Compare(a.DetectedAt)
}

// SortByDetectedDesc returns a new slice ordered by detected_at, newest
// first. Equal timestamps keep their input order.
func SortByDetectedDesc(gaps []*domain.ComplianceGap) []*domain.ComplianceGap {
	out := compactGaps(gaps)
	slices.SortStableFunc(out, compareDetectedDesc)
	return out
}

// SortBySeverity returns a new slice ordered by risk level, most severe
// first, with ties broken by detected_at descending. Remaining ties keep
// their input order. Unknown risk levels sort last.
func SortBySeverity(gaps []*domain.ComplianceGap) []*domain.ComplianceGap {
	out := compactGaps(gaps)
	slices.SortStableFunc(out, func(a, b *domain.ComplianceGap) int {
		if c := cmp.Compare(b.RiskLevel.Rank(), a.RiskLevel.Rank()); c != 0 {
			return c
		}
		return compareDetectedDesc(a, b)
	})
	return out
}

func compactGaps(gaps []*domain.ComplianceGap) []*domain.ComplianceGap {
	out := make([]*domain.ComplianceGap, 0, len(gaps))
	for _, g := range gaps {
		if g != nil {
			out = append(out, g)
		}
	}
	return out
}
