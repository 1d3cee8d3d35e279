// Package access decides whether a principal may act on a record.
//
// Authorization rules:
//   - Reports: admins and moderators may read, update and delete any report;
//     other users only the reports they created
//   - Map data, modules and alerts: admins may act on any record; other
//     users only on records they created
//   - Users: only admins may manage user records, and an admin may not
//     delete their own account
//
// The policy is pure. Callers load the record first so that a missing
// record surfaces as not-found before any access decision is made.
package access

import (
	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/entity"
)

// Principal is the authenticated caller.
type Principal struct {
	ID   uuid.UUID
	Role string
}

type Action string

const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Decision is the outcome of a policy check.
type Decision int

const (
	Deny Decision = iota
	Allow
	// DecisionSelf rejects an admin acting destructively on their own account.
	DecisionSelf
)

func (d Decision) Allowed() bool {
	return d == Allow
}

// IsAdmin reports whether role is admin.
func IsAdmin(role string) bool {
	return role == entity.RoleAdmin
}

// IsReportPrivileged reports whether role may manage every report.
func IsReportPrivileged(role string) bool {
	return role == entity.RoleAdmin || role == entity.RoleModerator
}

// CanAccessReport allows privileged roles and the report's creator.
func CanAccessReport(p Principal, ownerID uuid.UUID, _ Action) Decision {
	if IsReportPrivileged(p.Role) || isOwner(p, ownerID) {
		return Allow
	}
	return Deny
}

// CanAccessMapData allows admins and the feature's creator.
func CanAccessMapData(p Principal, ownerID uuid.UUID, _ Action) Decision {
	return adminOrOwner(p, ownerID)
}

// CanAccessModule allows admins and the uploader.
func CanAccessModule(p Principal, ownerID uuid.UUID, _ Action) Decision {
	return adminOrOwner(p, ownerID)
}

// CanAccessAlert allows admins and the alert's creator.
func CanAccessAlert(p Principal, ownerID uuid.UUID, _ Action) Decision {
	return adminOrOwner(p, ownerID)
}

// CanManageUser allows admins, except deleting their own record.
func CanManageUser(p Principal, targetID uuid.UUID, action Action) Decision {
	if !IsAdmin(p.Role) {
		return Deny
	}
	if action == ActionDelete && p.ID == targetID {
		return DecisionSelf
	}
	return Allow
}

// CanViewReportStats allows admins and moderators.
func CanViewReportStats(p Principal) Decision {
	if IsReportPrivileged(p.Role) {
		return Allow
	}
	return Deny
}

// CanPublishAlert allows admins and moderators.
func CanPublishAlert(p Principal) Decision {
	if IsReportPrivileged(p.Role) {
		return Allow
	}
	return Deny
}

// ReportScope is the slice of reports a principal may list.
type ReportScope struct {
	// AllOwners is true for privileged roles.
	AllOwners bool
	// OwnerID restricts listing to one creator when AllOwners is false.
	OwnerID uuid.UUID
}

// ReportListScope returns the listing scope for p.
func ReportListScope(p Principal) ReportScope {
	if IsReportPrivileged(p.Role) {
		return ReportScope{AllOwners: true}
	}
	return ReportScope{OwnerID: p.ID}
}

func adminOrOwner(p Principal, ownerID uuid.UUID) Decision {
	if IsAdmin(p.Role) || isOwner(p, ownerID) {
		return Allow
	}
	return Deny
}

func isOwner(p Principal, ownerID uuid.UUID) bool {
	return p.ID != uuid.Nil && p.ID == ownerID
}
