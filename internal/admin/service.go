// AngelaMos | 2026
// service.go

package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cit-submit/go-backend/internal/audit"
	"github.com/cit-submit/go-backend/internal/core"
	"github.com/cit-submit/go-backend/internal/policy"
	"github.com/cit-submit/go-backend/internal/user"
)

// RefreshRevoker kills a user's live refresh token when their account is
// deactivated.
type RefreshRevoker interface {
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// Service implements privileged user management. Every mutation runs inside
// one transaction together with its audit entry: either both persist or
// neither does. The acting admin's role is re-checked from storage on every
// call.
type Service struct {
	tx        core.TxRunner
	users     user.Repository
	audits    audit.Repository
	refresh   RefreshRevoker
	allowlist *policy.Allowlist
}

func NewService(
	tx core.TxRunner,
	users user.Repository,
	audits audit.Repository,
	refresh RefreshRevoker,
	allowlist *policy.Allowlist,
) *Service {
	return &Service{
		tx:        tx,
		users:     users,
		audits:    audits,
		refresh:   refresh,
		allowlist: allowlist,
	}
}

// ensureAdmin loads the acting user and fails closed unless they are an
// active admin. The result is never cached across calls.
func (s *Service) ensureAdmin(
	ctx context.Context,
	adminID string,
) (*user.User, error) {
	if adminID == "" {
		return nil, core.ForbiddenError("admin access required")
	}

	admin, err := s.users.GetByID(ctx, adminID)
	if err != nil {
		return nil, core.ForbiddenError("admin access required")
	}

	if !admin.IsAdmin() || !admin.Active {
		return nil, core.ForbiddenError("admin access required")
	}

	return admin, nil
}

func (s *Service) CreateUser(
	ctx context.Context,
	adminID string,
	req CreateUserRequest,
) (*user.User, error) {
	if _, err := s.ensureAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	emailAddr := strings.ToLower(strings.TrimSpace(req.Email))
	if !s.allowlist.IsInstitutionalEmail(emailAddr) {
		return nil, core.BadRequestError(
			"email domain is not an allowed institution")
	}

	role := req.Role
	if role == "" {
		role = user.RoleMember
	}
	if !user.ValidRole(role) {
		return nil, core.BadRequestError("invalid role")
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	created := &user.User{
		ID:            uuid.New().String(),
		Email:         emailAddr,
		Name:          req.Name,
		PasswordHash:  &passwordHash,
		Role:          role,
		AuthProvider:  user.ProviderEmail,
		EmailVerified: true,
		Active:        true,
		AccountStatus: user.StatusActive,
		ApprovedAt:    &now,
	}

	err = s.tx.RunInTx(ctx, func(db core.DBTX) error {
		if txErr := s.users.WithTx(db).Create(ctx, created); txErr != nil {
			return txErr
		}

		return s.audits.WithTx(db).Append(ctx, &audit.Entry{
			ID:           uuid.New().String(),
			AdminID:      adminID,
			TargetUserID: created.ID,
			Action:       audit.ActionCreate,
			Description: fmt.Sprintf(
				"Created user %s with role %s", emailAddr, role),
		})
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("email")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return created, nil
}

func (s *Service) UpdateUser(
	ctx context.Context,
	adminID, targetID string,
	req UpdateUserRequest,
) (*user.User, error) {
	if _, err := s.ensureAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	var changes audit.FieldChanges

	if req.Name != nil && *req.Name != target.Name {
		changes.Add("name", target.Name, *req.Name)
		target.Name = *req.Name
	}
	if req.Picture != nil && *req.Picture != target.Picture {
		changes.Add("picture", target.Picture, *req.Picture)
		target.Picture = *req.Picture
	}
	if req.Role != nil && *req.Role != target.Role {
		if !user.ValidRole(*req.Role) {
			return nil, core.BadRequestError("invalid role")
		}
		changes.Add("role", target.Role, *req.Role)
		target.Role = *req.Role
	}

	deactivated := false
	if req.Active != nil && *req.Active != target.Active {
		changes.Add("active", target.Active, *req.Active)
		if *req.Active {
			changes.Add(
				"account_status", target.AccountStatus, user.StatusActive)
			target.Reactivate()
		} else {
			changes.Add(
				"account_status", target.AccountStatus, user.StatusDeactivated)
			target.Deactivate()
			deactivated = true
		}
	}

	err = s.tx.RunInTx(ctx, func(db core.DBTX) error {
		if txErr := s.users.WithTx(db).Update(ctx, target); txErr != nil {
			return txErr
		}

		return s.audits.WithTx(db).Append(ctx, &audit.Entry{
			ID:            uuid.New().String(),
			AdminID:       adminID,
			TargetUserID:  target.ID,
			Action:        audit.ActionUpdate,
			Description:   "Updated user profile",
			ChangedFields: changes.String(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if deactivated {
		//nolint:errcheck // the gate already rejects deactivated users
		_, _ = s.refresh.DeleteByUser(ctx, target.ID)
	}

	return target, nil
}

func (s *Service) ChangeRole(
	ctx context.Context,
	adminID, targetID, newRole string,
) (*user.User, error) {
	if _, err := s.ensureAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	if !user.ValidRole(newRole) {
		return nil, core.BadRequestError("invalid role")
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	var changes audit.FieldChanges
	changes.Add("role", target.Role, newRole)

	oldRole := target.Role
	target.Role = newRole

	err = s.tx.RunInTx(ctx, func(db core.DBTX) error {
		if txErr := s.users.WithTx(db).Update(ctx, target); txErr != nil {
			return txErr
		}

		return s.audits.WithTx(db).Append(ctx, &audit.Entry{
			ID:           uuid.New().String(),
			AdminID:      adminID,
			TargetUserID: target.ID,
			Action:       audit.ActionRoleChange,
			Description: fmt.Sprintf(
				"Changed role from %s to %s", oldRole, newRole),
			ChangedFields: changes.String(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}

	return target, nil
}

// Deactivate disables an account. The live authorization gate makes this
// take effect on the target's very next request; their refresh token is also
// revoked so they cannot mint further access tokens.
func (s *Service) Deactivate(
	ctx context.Context,
	adminID, targetID string,
) (*user.User, error) {
	if _, err := s.ensureAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if !target.Active {
		return nil, core.ConflictError("account is already deactivated")
	}

	var changes audit.FieldChanges
	changes.Add("active", target.Active, false)
	changes.Add("account_status", target.AccountStatus, user.StatusDeactivated)

	target.Deactivate()

	err = s.tx.RunInTx(ctx, func(db core.DBTX) error {
		if txErr := s.users.WithTx(db).Update(ctx, target); txErr != nil {
			return txErr
		}

		return s.audits.WithTx(db).Append(ctx, &audit.Entry{
			ID:            uuid.New().String(),
			AdminID:       adminID,
			TargetUserID:  target.ID,
			Action:        audit.ActionDeactivate,
			Description:   "Deactivated account",
			ChangedFields: changes.String(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("deactivate user: %w", err)
	}

	//nolint:errcheck // the gate already rejects deactivated users
	_, _ = s.refresh.DeleteByUser(ctx, target.ID)

	return target, nil
}

func (s *Service) Reactivate(
	ctx context.Context,
	adminID, targetID string,
) (*user.User, error) {
	if _, err := s.ensureAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if target.Active {
		return nil, core.ConflictError("account is already active")
	}

	var changes audit.FieldChanges
	changes.Add("active", target.Active, true)
	changes.Add("account_status", target.AccountStatus, user.StatusActive)

	target.Reactivate()

	err = s.tx.RunInTx(ctx, func(db core.DBTX) error {
		if txErr := s.users.WithTx(db).Update(ctx, target); txErr != nil {
			return txErr
		}

		return s.audits.WithTx(db).Append(ctx, &audit.Entry{
			ID:            uuid.New().String(),
			AdminID:       adminID,
			TargetUserID:  target.ID,
			Action:        audit.ActionReactivate,
			Description:   "Reactivated account",
			ChangedFields: changes.String(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("reactivate user: %w", err)
	}

	return target, nil
}

// VerifyUser marks a pending account's email as verified on the user's
// behalf. Recorded as an UPDATE in the audit trail.
func (s *Service) VerifyUser(
	ctx context.Context,
	adminID, targetID string,
) (*user.User, error) {
	if _, err := s.ensureAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if target.EmailVerified {
		return nil, core.ConflictError("email is already verified")
	}

	var changes audit.FieldChanges
	changes.Add("email_verified", target.EmailVerified, true)
	changes.Add("account_status", target.AccountStatus, user.StatusActive)

	target.MarkVerified(time.Now().UTC())

	err = s.tx.RunInTx(ctx, func(db core.DBTX) error {
		if txErr := s.users.WithTx(db).Update(ctx, target); txErr != nil {
			return txErr
		}

		return s.audits.WithTx(db).Append(ctx, &audit.Entry{
			ID:            uuid.New().String(),
			AdminID:       adminID,
			TargetUserID:  target.ID,
			Action:        audit.ActionUpdate,
			Description:   "Marked email as verified",
			ChangedFields: changes.String(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("verify user: %w", err)
	}

	return target, nil
}

func (s *Service) GetUser(
	ctx context.Context,
	adminID, targetID string,
) (*user.User, error) {
	if _, err := s.ensureAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	return s.users.GetByID(ctx, targetID)
}

func (s *Service) ListUsers(
	ctx context.Context,
	adminID string,
	params user.ListUsersParams,
) ([]user.User, int, error) {
	if _, err := s.ensureAdmin(ctx, adminID); err != nil {
		return nil, 0, err
	}

	return s.users.List(ctx, params)
}

func (s *Service) ListAuditLogs(
	ctx context.Context,
	adminID string,
	params audit.ListParams,
) ([]audit.EntryResponse, int, error) {
	if _, err := s.ensureAdmin(ctx, adminID); err != nil {
		return nil, 0, err
	}

	entries, total, err := s.audits.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	return s.resolveEntries(ctx, entries), total, nil
}

func (s *Service) ListAuditLogsForTarget(
	ctx context.Context,
	adminID, targetID string,
	params audit.ListParams,
) ([]audit.EntryResponse, int, error) {
	if _, err := s.ensureAdmin(ctx, adminID); err != nil {
		return nil, 0, err
	}

	entries, total, err := s.audits.ListForTarget(ctx, targetID, params)
	if err != nil {
		return nil, 0, err
	}

	return s.resolveEntries(ctx, entries), total, nil
}

// resolveEntries joins actor names and target emails onto audit entries.
// References to since-removed records degrade to "Unknown" rather than
// failing the listing.
func (s *Service) resolveEntries(
	ctx context.Context,
	entries []audit.Entry,
) []audit.EntryResponse {
	names := make(map[string]string)
	emails := make(map[string]string)

	lookupName := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		name := "Unknown"
		if u, err := s.users.GetByID(ctx, id); err == nil {
			name = u.Name
		}
		names[id] = name
		return name
	}

	lookupEmail := func(id string) string {
		if emailAddr, ok := emails[id]; ok {
			return emailAddr
		}
		emailAddr := "Unknown"
		if u, err := s.users.GetByID(ctx, id); err == nil {
			emailAddr = u.Email
		}
		emails[id] = emailAddr
		return emailAddr
	}

	responses := make([]audit.EntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, audit.EntryResponse{
			ID:            e.ID,
			AdminID:       e.AdminID,
			AdminName:     lookupName(e.AdminID),
			TargetUserID:  e.TargetUserID,
			TargetEmail:   lookupEmail(e.TargetUserID),
			Action:        e.Action,
			Description:   e.Description,
			ChangedFields: e.ChangedFields,
			CreatedAt:     e.CreatedAt,
		})
	}

	return responses
}
