package http

import (
	"net/http"
	"strconv"
	"strings"
)

type RouterConfig struct {
	Reservations *ReservationHandler
	Facility     *FacilityHandler
	Maintenance  *MaintenanceHandler
	Directory    *DirectoryHandler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Reservations != nil {
		mux.HandleFunc("/reservations", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Reservations.Create(w, r)
		})
		mux.HandleFunc("/reservations/", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(r.URL.Path, "/reservations/")
			if !ok {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPut {
				methodNotAllowed(w, http.MethodPut)
				return
			}
			cfg.Reservations.Reschedule(w, r, id)
		})
		mux.HandleFunc("/roster", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Reservations.Roster(w, r)
		})
		mux.HandleFunc("/eligibility", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Reservations.Eligibility(w, r)
		})
	}

	if cfg.Facility != nil {
		mux.HandleFunc("/resources", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Facility.List(w, r)
			case http.MethodPost:
				cfg.Facility.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/resources/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/resources/")
			segments := strings.Split(rest, "/")
			id, err := strconv.ParseInt(segments[0], 10, 64)
			if err != nil || id <= 0 {
				http.NotFound(w, r)
				return
			}

			if len(segments) == 1 {
				if r.Method != http.MethodPut {
					methodNotAllowed(w, http.MethodPut)
					return
				}
				cfg.Facility.Update(w, r, id)
				return
			}

			if len(segments) != 2 || cfg.Reservations == nil {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			switch segments[1] {
			case "day":
				cfg.Reservations.Day(w, r, id)
			case "week":
				cfg.Reservations.Week(w, r, id)
			case "slots":
				cfg.Reservations.Slots(w, r, id)
			default:
				http.NotFound(w, r)
			}
		})
		mux.HandleFunc("/hours", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				methodNotAllowed(w, http.MethodPut)
				return
			}
			cfg.Facility.SetHours(w, r)
		})
		mux.HandleFunc("/closed-dates", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Facility.AddClosedDate(w, r)
		})
		mux.HandleFunc("/closed-dates/", func(w http.ResponseWriter, r *http.Request) {
			date := strings.TrimPrefix(r.URL.Path, "/closed-dates/")
			if date == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Facility.RemoveClosedDate(w, r, date)
		})
	}

	if cfg.Maintenance != nil {
		mux.HandleFunc("/maintenance/blocks", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Maintenance.CreateBlock(w, r)
		})
		mux.HandleFunc("/maintenance/service-events", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Maintenance.RecordService(w, r)
		})
		mux.HandleFunc("/maintenance/status/", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(r.URL.Path, "/maintenance/status/")
			if !ok {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Maintenance.Status(w, r, id)
		})
		mux.HandleFunc("/issues", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Maintenance.ListIssues(w, r)
			case http.MethodPost:
				cfg.Maintenance.ReportIssue(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
	}

	if cfg.Directory != nil {
		mux.HandleFunc("/members", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Directory.ListMembers(w, r)
			case http.MethodPost:
				cfg.Directory.CreateMember(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/members/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/members/")
			segments := strings.Split(rest, "/")
			id, err := strconv.ParseInt(segments[0], 10, 64)
			if err != nil || id <= 0 || len(segments) != 2 || segments[1] != "licences" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Directory.MemberLicences(w, r, id)
		})
		mux.HandleFunc("/licences", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Directory.CreateLicence(w, r)
		})
		mux.HandleFunc("/grants", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost:
				cfg.Directory.CreateGrant(w, r)
			case http.MethodDelete:
				cfg.Directory.RevokeGrant(w, r)
			default:
				methodNotAllowed(w, http.MethodPost, http.MethodDelete)
			}
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func pathID(path, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(path, prefix)
	if raw == "" || strings.Contains(raw, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
