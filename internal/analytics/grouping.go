package analytics

import (
	"cmp"
	"slices"

	"github.com/google/uuid"

	"github.com/gosuda/auditor/internal/domain"
)

// NoSessionKey is the group key for gaps without an audit session.
const NoSessionKey = "no-session"

// SessionGroup is the gaps of one audit session, newest first.
type SessionGroup struct {
	Key       string                  `json:"key"`
	SessionID *uuid.UUID              `json:"session_id,omitempty"`
	Gaps      []*domain.ComplianceGap `json:"gaps"`
	Stats     SessionStats            `json:"stats"`
	// Latest is Gaps[0]; it surfaces the group's domain and recency.
	Latest *domain.ComplianceGap `json:"latest"`
}

// SessionKey returns the group key a gap belongs to.
func SessionKey(g *domain.ComplianceGap) string {
	if g.AuditSessionID == nil || *g.AuditSessionID == uuid.Nil {
		return NoSessionKey
	}
	return g.AuditSessionID.String()
}

// GroupBySession partitions gaps by audit session. Within a group gaps are
// ordered by detected_at descending with a stable sort. Groups are ordered by
// their latest detection, newest first. On a tie the no-session group goes
// last and session groups keep first-appearance order.
func GroupBySession(gaps []*domain.ComplianceGap) []SessionGroup {
	index := make(map[string]int)
	var groups []SessionGroup

	for _, g := range gaps {
		if g == nil {
			continue
		}
		key := SessionKey(g)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			grp := SessionGroup{Key: key}
			if key != NoSessionKey {
				id := *g.AuditSessionID
				grp.SessionID = &id
			}
			groups = append(groups, grp)
		}
		groups[i].Gaps = append(groups[i].Gaps, g)
	}

	for i := range groups {
		slices.SortStableFunc(groups[i].Gaps, compareDetectedDesc)
		groups[i].Latest = groups[i].Gaps[0]
		groups[i].Stats = ComputeStats(groups[i].Gaps)
	}

	slices.SortStableFunc(groups, func(a, b SessionGroup) int {
		if c := compareDetectedDesc(a.Latest, b.Latest); c != 0 {
			return c
		}
		return cmp.Compare(noSessionRank(a.Key), noSessionRank(b.Key))
	})

	return groups
}

func noSessionRank(key string) int {
	if key == NoSessionKey {
		return 1
	}
	return 0
}

// Flatten concatenates grouped gaps back into a single list in group order.
func Flatten(groups []SessionGroup) []*domain.ComplianceGap {
	var out []*domain.ComplianceGap
	for _, grp := range groups {
		out = append(out, grp.Gaps...)
	}
	return out
}
