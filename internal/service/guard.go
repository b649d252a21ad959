package service

import (
	"github.com/manideeprkummitha/team-collab/internal/apperr"
	"github.com/manideeprkummitha/team-collab/internal/models"
)

// Authorize is the base check applied before every mutation: the principal
// must have resolved to a member, and that member must hold required.
func Authorize(member *models.Member, required models.Role) error {
	if member == nil {
		return apperr.ErrUnauthorized
	}
	switch required {
	case models.RoleMember:
		return nil
	case models.RoleAdmin:
		if !member.IsAdmin() {
			return apperr.ErrUnauthorized
		}
		return nil
	default:
		return apperr.Newf(apperr.KindInvalid, "unknown role %q", required)
	}
}

// CanRemoveMember decides whether actor may remove target. Non-admins may
// only remove themselves; admins may remove non-admins but never another
// admin, and never themselves.
func CanRemoveMember(actor, target *models.Member) error {
	if actor == nil || target == nil || actor.WorkspaceID != target.WorkspaceID {
		return apperr.ErrUnauthorized
	}
	if actor.ID == target.ID {
		if actor.IsAdmin() {
			return apperr.ErrRemoveSelfAdmin
		}
		return nil
	}
	if !actor.IsAdmin() {
		return apperr.ErrUnauthorized
	}
	if target.IsAdmin() {
		return apperr.ErrAdminRemoveAdmin
	}
	return nil
}

// CanChangeRole decides whether actor may set target's role to role.
func CanChangeRole(actor, target *models.Member, role models.Role) error {
	if !role.Valid() {
		return apperr.Newf(apperr.KindInvalid, "unknown role %q", role)
	}
	if actor == nil || target == nil || actor.WorkspaceID != target.WorkspaceID {
		return apperr.ErrUnauthorized
	}
	return Authorize(actor, models.RoleAdmin)
}
