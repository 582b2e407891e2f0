package eligibility

import (
	"testing"
	"time"

	"github.com/example/workshop-scheduler/internal/persistence"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func licencePtr(id int64) *int64 {
	return &id
}

func TestActiveLicences(t *testing.T) {
	t.Parallel()

	grants := []persistence.Grant{
		{MemberID: 1, LicenceID: 10, ValidFrom: day(2025, time.January, 1), ValidTo: day(2025, time.December, 31)},
		{MemberID: 1, LicenceID: 11, ValidFrom: day(2025, time.June, 1), ValidTo: day(2025, time.June, 30)},
		{MemberID: 2, LicenceID: 12, ValidFrom: day(2025, time.January, 1), ValidTo: day(2025, time.December, 31)},
	}

	t.Run("grant covers the reference day", func(t *testing.T) {
		active := ActiveLicences(grants, 1, day(2025, time.March, 15))
		if _, ok := active[10]; !ok {
			t.Fatalf("expected licence 10 active, got %v", active)
		}
		if _, ok := active[11]; ok {
			t.Fatal("licence 11 should not be active before June")
		}
	})

	t.Run("validity bounds are inclusive", func(t *testing.T) {
		for _, ref := range []time.Time{day(2025, time.June, 1), day(2025, time.June, 30)} {
			active := ActiveLicences(grants, 1, ref)
			if _, ok := active[11]; !ok {
				t.Fatalf("expected licence 11 active on %v", ref)
			}
		}
	})

	t.Run("comparison uses day granularity", func(t *testing.T) {
		lastDayEvening := time.Date(2025, time.June, 30, 23, 30, 0, 0, time.UTC)
		active := ActiveLicences(grants, 1, lastDayEvening)
		if _, ok := active[11]; !ok {
			t.Fatal("expected a grant valid through the day to cover its evening")
		}
	})

	t.Run("expired grant", func(t *testing.T) {
		active := ActiveLicences(grants, 1, day(2025, time.July, 1))
		if _, ok := active[11]; ok {
			t.Fatal("licence 11 should have expired")
		}
	})

	t.Run("other members' grants are ignored", func(t *testing.T) {
		active := ActiveLicences(grants, 1, day(2025, time.March, 15))
		if _, ok := active[12]; ok {
			t.Fatal("licence 12 belongs to member 2")
		}
	})

	t.Run("unknown member has no licences", func(t *testing.T) {
		if active := ActiveLicences(grants, 99, day(2025, time.March, 15)); len(active) != 0 {
			t.Fatalf("expected empty set, got %v", active)
		}
	})
}

func TestEligibleResources(t *testing.T) {
	t.Parallel()

	resources := []persistence.Resource{
		{ID: 1},
		{ID: 2, RequiredLicenceID: licencePtr(10)},
		{ID: 3, RequiredLicenceID: licencePtr(11)},
	}
	grants := []persistence.Grant{
		{MemberID: 1, LicenceID: 10, ValidFrom: day(2025, time.January, 1), ValidTo: day(2025, time.December, 31)},
	}

	eligible := EligibleResources(resources, grants, 1, day(2025, time.March, 15))

	if _, ok := eligible[1]; !ok {
		t.Fatal("ungated resource should always be eligible")
	}
	if _, ok := eligible[2]; !ok {
		t.Fatal("resource 2 should be eligible through licence 10")
	}
	if _, ok := eligible[3]; ok {
		t.Fatal("resource 3 requires licence 11 which the member lacks")
	}
}

func TestCanUse(t *testing.T) {
	t.Parallel()

	grants := []persistence.Grant{
		{MemberID: 1, LicenceID: 10, ValidFrom: day(2025, time.January, 1), ValidTo: day(2025, time.March, 31)},
	}
	gated := persistence.Resource{ID: 2, RequiredLicenceID: licencePtr(10)}

	if !CanUse(persistence.Resource{ID: 1}, grants, 1, day(2025, time.March, 15)) {
		t.Fatal("ungated resource should be usable by anyone")
	}
	if !CanUse(gated, grants, 1, day(2025, time.March, 15)) {
		t.Fatal("expected member 1 to hold licence 10 in March")
	}
	if CanUse(gated, grants, 1, day(2025, time.April, 1)) {
		t.Fatal("grant expires at end of March")
	}
	if CanUse(gated, grants, 2, day(2025, time.March, 15)) {
		t.Fatal("member 2 holds no grants")
	}
}
