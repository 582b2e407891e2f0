// Package eligibility decides which licences a member holds at an instant and
// which resources those licences open up. All functions are pure reads over
// the committed snapshot; an unknown member simply has empty eligibility.
package eligibility

import (
	"time"

	"github.com/example/workshop-scheduler/internal/persistence"
)

// ActiveLicences returns the set of licence ids granted to the member at the
// reference instant. A grant covers asOf when ValidFrom <= asOf <= ValidTo,
// compared at day granularity as the workbook does.
func ActiveLicences(grants []persistence.Grant, memberID int64, asOf time.Time) map[int64]struct{} {
	day := truncateToDay(asOf)
	active := make(map[int64]struct{})
	for _, g := range grants {
		if g.MemberID != memberID {
			continue
		}
		if truncateToDay(g.ValidFrom).After(day) {
			continue
		}
		if truncateToDay(g.ValidTo).Before(day) {
			continue
		}
		active[g.LicenceID] = struct{}{}
	}
	return active
}

// EligibleResources returns the ids of resources the member may book at the
// reference instant: every resource whose required licence is unset, plus
// those covered by an active grant.
func EligibleResources(resources []persistence.Resource, grants []persistence.Grant, memberID int64, asOf time.Time) map[int64]struct{} {
	licences := ActiveLicences(grants, memberID, asOf)
	eligible := make(map[int64]struct{})
	for _, r := range resources {
		if r.RequiredLicenceID == nil {
			eligible[r.ID] = struct{}{}
			continue
		}
		if _, ok := licences[*r.RequiredLicenceID]; ok {
			eligible[r.ID] = struct{}{}
		}
	}
	return eligible
}

// CanUse reports whether the member may book the specific resource at asOf.
func CanUse(resource persistence.Resource, grants []persistence.Grant, memberID int64, asOf time.Time) bool {
	if resource.RequiredLicenceID == nil {
		return true
	}
	licences := ActiveLicences(grants, memberID, asOf)
	_, ok := licences[*resource.RequiredLicenceID]
	return ok
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
