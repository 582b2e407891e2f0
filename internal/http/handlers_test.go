package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/workshop-scheduler/internal/application"
	"github.com/example/workshop-scheduler/internal/persistence"
	"github.com/example/workshop-scheduler/internal/persistence/memory"
	"github.com/example/workshop-scheduler/internal/testfixtures"
)

// testSeed returns a snapshot with a licenced member (id 1), an admin (id 2),
// the licence-gated resource 1 and the ungated resource 2.
func testSeed() persistence.Snapshot {
	licence := persistence.Licence{ID: 10, Name: "Laser"}
	return testfixtures.NewSnapshot(
		testfixtures.WithMembers(
			testfixtures.NewMember(testfixtures.WithMemberID(1)),
			testfixtures.NewMember(testfixtures.WithMemberID(2), testfixtures.WithMemberRole(persistence.RoleAdmin)),
		),
		testfixtures.WithLicences(licence),
		testfixtures.WithGrants(testfixtures.NewGrant(1, licence.ID,
			time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
		)),
		testfixtures.WithResources(
			testfixtures.NewResource(testfixtures.WithResourceID(1), testfixtures.WithRequiredLicence(licence.ID)),
			testfixtures.NewResource(testfixtures.WithResourceID(2)),
		),
	)
}

func memberAuth() application.Principal {
	return application.Principal{MemberID: 1, Role: persistence.RoleMember}
}

func adminAuth() application.Principal {
	return application.Principal{MemberID: 2, Role: persistence.RoleAdmin}
}

// newTestHandler assembles the full router over real services and an
// in-memory store, with the given principal preauthenticated.
func newTestHandler(t *testing.T, seed persistence.Snapshot, principal application.Principal) http.Handler {
	t.Helper()

	store := memory.NewStore(seed)
	state, err := application.LoadState(context.Background(), store)
	if err != nil {
		t.Fatalf("failed to load state: %v", err)
	}

	clock := testfixtures.NewClock(time.Time{})
	ledger := application.NewReservationService(state, clock.NowFunc(), true)
	facility := application.NewFacilityService(state, clock.NowFunc())
	maintenance := application.NewMaintenanceService(state, ledger, clock.NowFunc())
	directory := application.NewDirectoryService(state, clock.NowFunc())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewRouter(RouterConfig{
		Reservations: NewReservationHandler(ledger, 30, clock.NowFunc(), logger),
		Facility:     NewFacilityHandler(facility, logger),
		Maintenance:  NewMaintenanceHandler(maintenance, logger),
		Directory:    NewDirectoryHandler(directory, clock.NowFunc(), logger),
		Middleware: []func(http.Handler) http.Handler{
			func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
				})
			},
		},
	})
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
}

func TestReservationEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("creates a reservation and returns 201", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, testSeed(), memberAuth())

		recorder := doRequest(t, handler, http.MethodPost, "/reservations",
			`{"resource_id":2,"start":"2025-03-03T10:00:00Z","end":"2025-03-03T11:00:00Z","notes":"cutting stock"}`)

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		var resp reservationResponse
		decodeBody(t, recorder, &resp)
		if resp.Reservation.ID != 1 {
			t.Fatalf("expected reservation id 1, got %d", resp.Reservation.ID)
		}
		if resp.Reservation.Category != "usage" {
			t.Fatalf("expected usage category, got %q", resp.Reservation.Category)
		}
	})

	t.Run("maps overlap to 409 with its error code", func(t *testing.T) {
		t.Parallel()
		seed := testSeed()
		start := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
		seed.Reservations = append(seed.Reservations,
			testfixtures.NewReservation(2, 1, start, start.Add(2*time.Hour), testfixtures.WithReservationID(1)))
		handler := newTestHandler(t, seed, memberAuth())

		recorder := doRequest(t, handler, http.MethodPost, "/reservations",
			`{"resource_id":2,"start":"2025-03-03T11:00:00Z","end":"2025-03-03T13:00:00Z"}`)

		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", recorder.Code)
		}
		var resp errorResponse
		decodeBody(t, recorder, &resp)
		if resp.ErrorCode != "OVERLAP" {
			t.Fatalf("expected OVERLAP error code, got %q", resp.ErrorCode)
		}
	})

	t.Run("maps eligibility denial to 403", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, testSeed(), adminAuth())

		recorder := doRequest(t, handler, http.MethodPost, "/reservations",
			`{"resource_id":1,"start":"2025-03-03T10:00:00Z","end":"2025-03-03T11:00:00Z"}`)

		if recorder.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", recorder.Code)
		}
		var resp errorResponse
		decodeBody(t, recorder, &resp)
		if resp.ErrorCode != "ELIGIBILITY_DENIED" {
			t.Fatalf("expected ELIGIBILITY_DENIED, got %q", resp.ErrorCode)
		}
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, testSeed(), memberAuth())

		recorder := doRequest(t, handler, http.MethodPost, "/reservations", "{not json")
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})

	t.Run("reports missing interval as validation errors", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, testSeed(), memberAuth())

		recorder := doRequest(t, handler, http.MethodPost, "/reservations", `{"resource_id":2}`)
		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", recorder.Code)
		}
		var resp errorResponse
		decodeBody(t, recorder, &resp)
		if resp.ErrorCode != "VALIDATION" {
			t.Fatalf("expected VALIDATION, got %q", resp.ErrorCode)
		}
		if _, ok := resp.Errors["start"]; !ok {
			t.Fatalf("expected a start field error, got %v", resp.Errors)
		}
	})

	t.Run("day view requires a date parameter", func(t *testing.T) {
		t.Parallel()
		seed := testSeed()
		start := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
		seed.Reservations = append(seed.Reservations,
			testfixtures.NewReservation(2, 1, start, start.Add(time.Hour), testfixtures.WithReservationID(1)))
		handler := newTestHandler(t, seed, memberAuth())

		recorder := doRequest(t, handler, http.MethodGet, "/resources/2/day", "")
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 without date, got %d", recorder.Code)
		}

		recorder = doRequest(t, handler, http.MethodGet, "/resources/2/day?date=2025-03-03", "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		var resp listReservationsResponse
		decodeBody(t, recorder, &resp)
		if len(resp.Reservations) != 1 {
			t.Fatalf("expected 1 reservation, got %d", len(resp.Reservations))
		}
	})

	t.Run("reschedule is admin only", func(t *testing.T) {
		t.Parallel()
		seed := testSeed()
		start := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
		seed.Reservations = append(seed.Reservations,
			testfixtures.NewReservation(2, 1, start, start.Add(time.Hour), testfixtures.WithReservationID(1)))

		asMember := newTestHandler(t, seed, memberAuth())
		recorder := doRequest(t, asMember, http.MethodPut, "/reservations/1",
			`{"resource_id":2,"start":"2025-03-03T13:00:00Z","end":"2025-03-03T14:00:00Z"}`)
		if recorder.Code != http.StatusForbidden {
			t.Fatalf("expected 403 for a member, got %d", recorder.Code)
		}

		asAdmin := newTestHandler(t, seed, adminAuth())
		recorder = doRequest(t, asAdmin, http.MethodPut, "/reservations/1",
			`{"resource_id":2,"start":"2025-03-03T13:00:00Z","end":"2025-03-03T14:00:00Z"}`)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		var resp reservationResponse
		decodeBody(t, recorder, &resp)
		if resp.Reservation.Start != "2025-03-03T13:00:00Z" {
			t.Fatalf("expected moved start, got %q", resp.Reservation.Start)
		}
	})

	t.Run("slots follow the step parameter", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, testSeed(), memberAuth())

		recorder := doRequest(t, handler, http.MethodGet, "/resources/2/slots?date=2025-03-03&step=120", "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		var resp slotsResponse
		decodeBody(t, recorder, &resp)
		if len(resp.Slots) != 4 || resp.Slots[0] != "09:00" {
			t.Fatalf("expected four slots from 09:00, got %v", resp.Slots)
		}
	})

	t.Run("eligibility defaults to the caller", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, testSeed(), adminAuth())

		recorder := doRequest(t, handler, http.MethodGet, "/eligibility?as_of=2025-03-03T09:00:00Z", "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		var resp listResourcesResponse
		decodeBody(t, recorder, &resp)
		if len(resp.Resources) != 1 || resp.Resources[0].ID != 2 {
			t.Fatalf("expected only the ungated resource for the admin, got %v", resp.Resources)
		}

		// Admins may inspect another member's eligibility.
		recorder = doRequest(t, handler, http.MethodGet, "/eligibility?as_of=2025-03-03T09:00:00Z&member_id=1", "")
		decodeBody(t, recorder, &resp)
		if len(resp.Resources) != 2 {
			t.Fatalf("expected both resources for the licenced member, got %v", resp.Resources)
		}
	})

	t.Run("roster spans every resource", func(t *testing.T) {
		t.Parallel()
		seed := testSeed()
		start := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
		seed.Reservations = append(seed.Reservations,
			testfixtures.NewReservation(2, 1, start, start.Add(time.Hour), testfixtures.WithReservationID(1)),
			testfixtures.NewReservation(1, 1, start, start.Add(time.Hour), testfixtures.WithReservationID(2)),
		)
		handler := newTestHandler(t, seed, memberAuth())

		recorder := doRequest(t, handler, http.MethodGet, "/roster?date=2025-03-03", "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		var resp rosterResponse
		decodeBody(t, recorder, &resp)
		if len(resp.Entries) != 2 {
			t.Fatalf("expected 2 roster entries, got %d", len(resp.Entries))
		}
		if resp.Entries[0].Resource.ID != 1 {
			t.Fatalf("expected resource order by id, got %d first", resp.Entries[0].Resource.ID)
		}
	})
}

func TestFacilityEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("lists the catalog", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, testSeed(), memberAuth())

		recorder := doRequest(t, handler, http.MethodGet, "/resources", "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		var resp listResourcesResponse
		decodeBody(t, recorder, &resp)
		if len(resp.Resources) != 2 {
			t.Fatalf("expected 2 resources, got %d", len(resp.Resources))
		}
	})

	t.Run("create is admin only", func(t *testing.T) {
		t.Parallel()
		body := `{"name":"Bandsaw","serial_no":"BS-1","max_reservation_minutes":120,"service_interval_hours":50}`

		asMember := newTestHandler(t, testSeed(), memberAuth())
		recorder := doRequest(t, asMember, http.MethodPost, "/resources", body)
		if recorder.Code != http.StatusForbidden {
			t.Fatalf("expected 403 for a member, got %d", recorder.Code)
		}

		asAdmin := newTestHandler(t, testSeed(), adminAuth())
		recorder = doRequest(t, asAdmin, http.MethodPost, "/resources", body)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		var resp resourceResponse
		decodeBody(t, recorder, &resp)
		if resp.Resource.ID != 3 || resp.Resource.Name != "Bandsaw" {
			t.Fatalf("unexpected resource %+v", resp.Resource)
		}
	})

	t.Run("updates an existing resource", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, testSeed(), adminAuth())

		recorder := doRequest(t, handler, http.MethodPut, "/resources/2",
			`{"name":"Workbench B","max_reservation_minutes":480}`)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}

		recorder = doRequest(t, handler, http.MethodPut, "/resources/99",
			`{"name":"Ghost","max_reservation_minutes":60}`)
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", recorder.Code)
		}
	})

	t.Run("replaces weekly hours", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, testSeed(), adminAuth())

		recorder := doRequest(t, handler, http.MethodPut, "/hours",
			`{"days":[{"weekday":0,"open":true,"open_time":"9am","close_time":"5pm"},{"weekday":6}]}`)
		if recorder.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", recorder.Code, recorder.Body.String())
		}
	})

	t.Run("closed date lifecycle", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, testSeed(), adminAuth())

		recorder := doRequest(t, handler, http.MethodPost, "/closed-dates",
			`{"date":"2025-03-10","reason":"public holiday"}`)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}

		recorder = doRequest(t, handler, http.MethodPost, "/closed-dates", `{"date":"10/03/2025"}`)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for a malformed date, got %d", recorder.Code)
		}

		recorder = doRequest(t, handler, http.MethodDelete, "/closed-dates/2025-03-10", "")
		if recorder.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", recorder.Code)
		}

		recorder = doRequest(t, handler, http.MethodDelete, "/closed-dates/2025-03-10", "")
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for a missing closure, got %d", recorder.Code)
		}
	})
}

func TestMaintenanceEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("schedules a maintenance block", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, testSeed(), adminAuth())

		recorder := doRequest(t, handler, http.MethodPost, "/maintenance/blocks",
			`{"resource_id":1,"start":"2025-03-03T10:00:00Z","end":"2025-03-03T12:00:00Z","notes":"belt swap"}`)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		var resp reservationResponse
		decodeBody(t, recorder, &resp)
		if resp.Reservation.Category != "maintenance" {
			t.Fatalf("expected maintenance category, got %q", resp.Reservation.Category)
		}
	})

	t.Run("reports service status", func(t *testing.T) {
		t.Parallel()
		seed := testSeed()
		seed.Resources[1].ServiceIntervalHours = 10
		start := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
		seed.Reservations = append(seed.Reservations,
			testfixtures.NewReservation(2, 1, start, start.Add(90*time.Minute), testfixtures.WithReservationID(1)),
			testfixtures.NewReservation(2, 1, start.AddDate(0, 0, 1), start.AddDate(0, 0, 1).Add(2*time.Hour), testfixtures.WithReservationID(2)),
		)
		handler := newTestHandler(t, seed, memberAuth())

		recorder := doRequest(t, handler, http.MethodGet, "/maintenance/status/2", "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		var resp maintenanceStatusResponse
		decodeBody(t, recorder, &resp)
		if resp.AccruedHours != 3.5 || resp.HoursUntilService != 6.5 {
			t.Fatalf("expected 3.5 accrued and 6.5 remaining, got %+v", resp)
		}
		if resp.ServiceDue {
			t.Fatal("expected service not yet due")
		}

		recorder = doRequest(t, handler, http.MethodGet, "/maintenance/status/99", "")
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", recorder.Code)
		}
	})

	t.Run("records a service event", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, testSeed(), adminAuth())

		recorder := doRequest(t, handler, http.MethodPost, "/maintenance/service-events",
			`{"resource_id":2,"occurred_at":"2025-03-03T18:00:00Z","notes":"oil change"}`)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		var resp serviceEventResponse
		decodeBody(t, recorder, &resp)
		if resp.Event.ID != 1 || resp.Event.ResourceID != 2 {
			t.Fatalf("unexpected event %+v", resp.Event)
		}
	})

	t.Run("issue lifecycle", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, testSeed(), memberAuth())

		recorder := doRequest(t, handler, http.MethodPost, "/issues",
			`{"resource_id":2,"text":"blade is dull"}`)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}

		recorder = doRequest(t, handler, http.MethodGet, "/issues?resource_id=2", "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		var resp listIssuesResponse
		decodeBody(t, recorder, &resp)
		if len(resp.Issues) != 1 || resp.Issues[0].Text != "blade is dull" {
			t.Fatalf("unexpected issues %+v", resp.Issues)
		}

		recorder = doRequest(t, handler, http.MethodGet, "/issues?resource_id=abc", "")
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for a malformed resource id, got %d", recorder.Code)
		}
	})
}

func TestDirectoryEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("lists members", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, testSeed(), memberAuth())

		recorder := doRequest(t, handler, http.MethodGet, "/members", "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		var resp listMembersResponse
		decodeBody(t, recorder, &resp)
		if len(resp.Members) != 2 {
			t.Fatalf("expected 2 members, got %d", len(resp.Members))
		}
	})

	t.Run("creates a member with an optional password", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, testSeed(), adminAuth())

		recorder := doRequest(t, handler, http.MethodPost, "/members",
			`{"name":"Ada","email":"ada@example.com","role":"superuser","password":"workshop!"}`)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		var resp memberResponse
		decodeBody(t, recorder, &resp)
		if resp.Member.ID != 3 || resp.Member.Role != "superuser" {
			t.Fatalf("unexpected member %+v", resp.Member)
		}
	})

	t.Run("grant lifecycle", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, testSeed(), adminAuth())

		recorder := doRequest(t, handler, http.MethodPost, "/grants",
			`{"member_id":2,"licence_id":10,"valid_from":"2025-04-01","valid_to":"2025-04-30"}`)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		var resp grantResponse
		decodeBody(t, recorder, &resp)
		if resp.Grant.ValidFrom != "2025-04-01" {
			t.Fatalf("unexpected grant %+v", resp.Grant)
		}

		recorder = doRequest(t, handler, http.MethodDelete, "/grants",
			`{"member_id":1,"licence_id":10,"valid_from":"2025-03-01"}`)
		if recorder.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", recorder.Code, recorder.Body.String())
		}

		recorder = doRequest(t, handler, http.MethodDelete, "/grants",
			`{"member_id":1,"licence_id":10,"valid_from":"2025-03-01"}`)
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for a revoked grant, got %d", recorder.Code)
		}
	})

	t.Run("member licences honour the as_of date", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, testSeed(), memberAuth())

		recorder := doRequest(t, handler, http.MethodGet, "/members/1/licences?as_of=2025-03-15", "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		var resp memberLicencesResponse
		decodeBody(t, recorder, &resp)
		if len(resp.LicenceIDs) != 1 || resp.LicenceIDs[0] != 10 {
			t.Fatalf("expected licence 10 active, got %v", resp.LicenceIDs)
		}

		recorder = doRequest(t, handler, http.MethodGet, "/members/1/licences?as_of=2025-05-01", "")
		decodeBody(t, recorder, &resp)
		if len(resp.LicenceIDs) != 0 {
			t.Fatalf("expected no active licences after expiry, got %v", resp.LicenceIDs)
		}
	})

	t.Run("creates a licence", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, testSeed(), adminAuth())

		recorder := doRequest(t, handler, http.MethodPost, "/licences", `{"name":"Mill"}`)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		var resp licenceResponse
		decodeBody(t, recorder, &resp)
		if resp.Licence.ID != 11 || resp.Licence.Name != "Mill" {
			t.Fatalf("unexpected licence %+v", resp.Licence)
		}
	})
}

func TestRouterDispatch(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, testSeed(), memberAuth())

	t.Run("unknown paths return 404", func(t *testing.T) {
		t.Parallel()
		recorder := doRequest(t, handler, http.MethodGet, "/nothing-here", "")
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", recorder.Code)
		}
	})

	t.Run("non-numeric ids return 404", func(t *testing.T) {
		t.Parallel()
		recorder := doRequest(t, handler, http.MethodPut, "/reservations/abc", "{}")
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", recorder.Code)
		}
	})

	t.Run("wrong methods return 405 with an Allow header", func(t *testing.T) {
		t.Parallel()
		recorder := doRequest(t, handler, http.MethodDelete, "/reservations", "")
		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", recorder.Code)
		}
		if allow := recorder.Header().Get("Allow"); allow != http.MethodPost {
			t.Fatalf("expected Allow: POST, got %q", allow)
		}
	})
}

func TestParseTimestampNormalizesOffsetsToUTC(t *testing.T) {
	t.Parallel()

	ts := parseTimestamp("2025-03-08T00:30:00+10:00")
	if ts.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", ts.Location())
	}
	want := time.Date(2025, time.March, 7, 14, 30, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("expected %v, got %v", want, ts)
	}

	if !parseTimestamp("not a timestamp").IsZero() {
		t.Fatal("expected zero time for malformed input")
	}
}

func TestEligibilityDefaultsToInjectedClock(t *testing.T) {
	t.Parallel()

	// The grant in testSeed is only valid during March 2025. Without an
	// as_of parameter the handler must consult the injected clock, which
	// sits inside that window, rather than the wall clock.
	handler := newTestHandler(t, testSeed(), memberAuth())

	recorder := doRequest(t, handler, http.MethodGet, "/eligibility", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var resp listResourcesResponse
	decodeBody(t, recorder, &resp)
	if len(resp.Resources) != 2 {
		t.Fatalf("expected both resources eligible at the clock's instant, got %v", resp.Resources)
	}
}
