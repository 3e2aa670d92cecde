package authorization

import (
	"context"
	"errors"
)

// Objects guarded by the enforcer.
const (
	ObjectOrganization = "organization"
	ObjectMember       = "member"
	ObjectInvite       = "invite"
	ObjectReport       = "report"
	ObjectAuditLog     = "audit_log"
	ObjectExport       = "export"
)

// Actions on those objects.
const (
	ActionOrganizationView   = "organization.view"
	ActionOrganizationManage = "organization.manage"

	ActionMemberView   = "member.view"
	ActionMemberManage = "member.manage"

	ActionInviteCreate = "invite.create"

	ActionReportView = "report.view"

	ActionAuditLogView = "audit_log.view"

	ActionExportDownload = "export.download"
)

var (
	ErrInvalidActor        = errors.New("invalid_actor")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidObject       = errors.New("invalid_object")
	ErrInvalidAction       = errors.New("invalid_action")
	ErrForbidden           = errors.New("forbidden")
)

// Service answers "may this agent perform this action on this object in
// this organization". Roles come from the membership table; the role to
// capability mapping lives in the policy seed.
type Service interface {
	Authorize(ctx context.Context, actor string, orgID string, object string, action string) error
}
