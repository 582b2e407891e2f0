package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/workshop-scheduler/internal/eligibility"
	"github.com/example/workshop-scheduler/internal/persistence"
)

// DirectoryService manages members, licences, and grants. These are the
// administrative operations behind the original admin tabs; role checks
// guard them because they are the engine's outward-facing surface.
type DirectoryService struct {
	state  *State
	now    func() time.Time
	logger *slog.Logger
}

// NewDirectoryService constructs a directory service over the shared state.
func NewDirectoryService(state *State, now func() time.Time) *DirectoryService {
	return NewDirectoryServiceWithLogger(state, now, nil)
}

// NewDirectoryServiceWithLogger constructs a directory service with a specified logger.
func NewDirectoryServiceWithLogger(state *State, now func() time.Time, logger *slog.Logger) *DirectoryService {
	if now == nil {
		now = time.Now
	}
	return &DirectoryService{state: state, now: now, logger: defaultLogger(logger)}
}

func (s *DirectoryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DirectoryService", operation, attrs...)
}

// CreateMember registers a new member account.
func (s *DirectoryService) CreateMember(ctx context.Context, principal Principal, input MemberInput) (member persistence.Member, err error) {
	if s == nil || s.state == nil {
		err = fmt.Errorf("DirectoryService is not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateMember", "principal_id", principal.MemberID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create member", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("member_id", member.ID).InfoContext(ctx, "member created")
	}()

	if !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	role := input.Role
	if role == "" {
		role = persistence.RoleMember
	}
	switch role {
	case persistence.RoleMember, persistence.RoleSuperuser, persistence.RoleAdmin:
	default:
		vErr.add("role", "role must be member, superuser, or admin")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	err = s.state.Update(ctx, func(current persistence.Snapshot) (persistence.Snapshot, error) {
		next := current.Clone()
		member = persistence.Member{
			ID:    current.NextMemberID(),
			Name:  strings.TrimSpace(input.Name),
			Role:  role,
			Email: strings.TrimSpace(input.Email),
		}
		next.Members = append(next.Members, member)
		return next, nil
	})
	if err != nil {
		member = persistence.Member{}
		return
	}
	return
}

// CreateLicence registers a new named credential.
func (s *DirectoryService) CreateLicence(ctx context.Context, principal Principal, name string) (licence persistence.Licence, err error) {
	if s == nil || s.state == nil {
		err = fmt.Errorf("DirectoryService is not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateLicence", "principal_id", principal.MemberID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create licence", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("licence_id", licence.ID).InfoContext(ctx, "licence created")
	}()

	if !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	if strings.TrimSpace(name) == "" {
		vErr := &ValidationError{}
		vErr.add("name", "name is required")
		err = vErr
		return
	}

	err = s.state.Update(ctx, func(current persistence.Snapshot) (persistence.Snapshot, error) {
		next := current.Clone()
		licence = persistence.Licence{ID: current.NextLicenceID(), Name: strings.TrimSpace(name)}
		next.Licences = append(next.Licences, licence)
		return next, nil
	})
	if err != nil {
		licence = persistence.Licence{}
		return
	}
	return
}

// GrantLicence links a member to a licence over a validity interval.
// Overlapping grants for the same pair may coexist; the licence is active
// whenever any grant covers the instant.
func (s *DirectoryService) GrantLicence(ctx context.Context, principal Principal, input GrantInput) (grant persistence.Grant, err error) {
	if s == nil || s.state == nil {
		err = fmt.Errorf("DirectoryService is not configured")
		return
	}

	logger := s.loggerWith(ctx, "GrantLicence",
		"principal_id", principal.MemberID,
		"member_id", input.MemberID,
		"licence_id", input.LicenceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to grant licence", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "licence granted")
	}()

	if !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	vErr := &ValidationError{}
	if input.ValidFrom.IsZero() {
		vErr.add("valid_from", "valid from is required")
	}
	if input.ValidTo.IsZero() {
		vErr.add("valid_to", "valid to is required")
	}
	if !input.ValidFrom.IsZero() && !input.ValidTo.IsZero() && input.ValidTo.Before(input.ValidFrom) {
		vErr.add("validity", "valid to must not precede valid from")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	err = s.state.Update(ctx, func(current persistence.Snapshot) (persistence.Snapshot, error) {
		if _, ok := current.MemberByID(input.MemberID); !ok {
			return persistence.Snapshot{}, ErrNotFound
		}
		if _, ok := current.LicenceByID(input.LicenceID); !ok {
			return persistence.Snapshot{}, ErrNotFound
		}
		next := current.Clone()
		grant = persistence.Grant{
			MemberID:  input.MemberID,
			LicenceID: input.LicenceID,
			ValidFrom: input.ValidFrom,
			ValidTo:   input.ValidTo,
		}
		next.Grants = append(next.Grants, grant)
		return next, nil
	})
	if err != nil {
		grant = persistence.Grant{}
		return
	}
	return
}

// RevokeGrant removes a grant row outright, as the original admin tab does.
// Natural expiry needs no revocation; this is the explicit administrative
// override.
func (s *DirectoryService) RevokeGrant(ctx context.Context, principal Principal, memberID, licenceID int64, validFrom time.Time) error {
	if s == nil || s.state == nil {
		return fmt.Errorf("DirectoryService is not configured")
	}

	logger := s.loggerWith(ctx, "RevokeGrant",
		"principal_id", principal.MemberID,
		"member_id", memberID,
		"licence_id", licenceID,
	)

	if !principal.IsAdmin() {
		return ErrUnauthorized
	}

	err := s.state.Update(ctx, func(current persistence.Snapshot) (persistence.Snapshot, error) {
		next := current.Clone()
		kept := next.Grants[:0]
		removed := false
		for _, g := range next.Grants {
			if !removed && g.MemberID == memberID && g.LicenceID == licenceID && g.ValidFrom.Equal(validFrom) {
				removed = true
				continue
			}
			kept = append(kept, g)
		}
		if !removed {
			return persistence.Snapshot{}, ErrNotFound
		}
		next.Grants = kept
		return next, nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to revoke grant", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "grant revoked")
	return nil
}

// SetMemberPassword stores an argon2id hash of the sign-in secret on the
// member record. Only admin and superuser accounts carry one.
func (s *DirectoryService) SetMemberPassword(ctx context.Context, principal Principal, memberID int64, password string) error {
	if s == nil || s.state == nil {
		return fmt.Errorf("DirectoryService is not configured")
	}

	logger := s.loggerWith(ctx, "SetMemberPassword",
		"principal_id", principal.MemberID,
		"member_id", memberID,
	)

	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	if strings.TrimSpace(password) == "" {
		vErr := &ValidationError{}
		vErr.add("password", "password is required")
		return vErr
	}

	hash, err := CreatePasswordHash(password, DefaultArgon2idParams)
	if err != nil {
		return err
	}

	err = s.state.Update(ctx, func(current persistence.Snapshot) (persistence.Snapshot, error) {
		next := current.Clone()
		for i := range next.Members {
			if next.Members[i].ID == memberID {
				next.Members[i].PasswordHash = hash
				return next, nil
			}
		}
		return persistence.Snapshot{}, ErrNotFound
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to set member password", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "member password set")
	return nil
}

// VerifyMemberPassword checks a sign-in secret for the session layer, which
// lives outside the engine. Members without a stored hash never verify.
func (s *DirectoryService) VerifyMemberPassword(ctx context.Context, memberID int64, password string) error {
	if s == nil || s.state == nil {
		return fmt.Errorf("DirectoryService is not configured")
	}
	member, ok := s.state.View().MemberByID(memberID)
	if !ok {
		return ErrNotFound
	}
	if member.PasswordHash == "" {
		return ErrInvalidCredentials
	}
	return VerifyPassword(member.PasswordHash, password)
}

// Authenticate resolves an email and sign-in secret to a principal. Lookup
// is case-insensitive on email. Wrong password and unknown email both report
// ErrInvalidCredentials so callers cannot probe for accounts.
func (s *DirectoryService) Authenticate(ctx context.Context, email, password string) (Principal, error) {
	if s == nil || s.state == nil {
		return Principal{}, fmt.Errorf("DirectoryService is not configured")
	}
	lower := strings.ToLower(strings.TrimSpace(email))
	for _, member := range s.state.View().Members {
		if strings.ToLower(member.Email) != lower {
			continue
		}
		if member.PasswordHash == "" {
			return Principal{}, ErrInvalidCredentials
		}
		if err := VerifyPassword(member.PasswordHash, password); err != nil {
			return Principal{}, err
		}
		return Principal{MemberID: member.ID, Role: member.Role}, nil
	}
	return Principal{}, ErrInvalidCredentials
}

// ListMembers returns all member accounts ordered by id.
func (s *DirectoryService) ListMembers(ctx context.Context) ([]persistence.Member, error) {
	if s == nil || s.state == nil {
		return nil, fmt.Errorf("DirectoryService is not configured")
	}
	current := s.state.View()
	out := append([]persistence.Member(nil), current.Members...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ActiveLicences returns the ids of licences active for the member at asOf.
func (s *DirectoryService) ActiveLicences(ctx context.Context, memberID int64, asOf time.Time) ([]int64, error) {
	if s == nil || s.state == nil {
		return nil, fmt.Errorf("DirectoryService is not configured")
	}
	current := s.state.View()
	active := eligibility.ActiveLicences(current.Grants, memberID, asOf)
	out := make([]int64, 0, len(active))
	for id := range active {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
