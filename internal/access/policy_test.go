package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/entity"
)

func TestCanAccessReport(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	tests := []struct {
		name      string
		principal Principal
		action    Action
		want      Decision
	}{
		{"owner reads", Principal{ID: owner, Role: entity.RoleUser}, ActionRead, Allow},
		{"owner deletes", Principal{ID: owner, Role: entity.RoleUser}, ActionDelete, Allow},
		{"stranger reads", Principal{ID: other, Role: entity.RoleUser}, ActionRead, Deny},
		{"stranger updates", Principal{ID: other, Role: entity.RoleUser}, ActionUpdate, Deny},
		{"moderator updates", Principal{ID: other, Role: entity.RoleModerator}, ActionUpdate, Allow},
		{"admin deletes", Principal{ID: other, Role: entity.RoleAdmin}, ActionDelete, Allow},
		{"anonymous", Principal{}, ActionRead, Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccessReport(tt.principal, owner, tt.action); got != tt.want {
				t.Errorf("CanAccessReport() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdminOrOwnerResources(t *testing.T) {
	owner := uuid.New()
	checks := map[string]func(Principal, uuid.UUID, Action) Decision{
		"map":    CanAccessMapData,
		"module": CanAccessModule,
		"alert":  CanAccessAlert,
	}

	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			if check(Principal{ID: owner, Role: entity.RoleUser}, owner, ActionUpdate) != Allow {
				t.Error("owner should be allowed")
			}
			if check(Principal{ID: uuid.New(), Role: entity.RoleAdmin}, owner, ActionDelete) != Allow {
				t.Error("admin should be allowed")
			}
			if check(Principal{ID: uuid.New(), Role: entity.RoleModerator}, owner, ActionUpdate) != Deny {
				t.Error("moderator is not privileged here")
			}
			if check(Principal{ID: uuid.New(), Role: entity.RoleUser}, owner, ActionDelete) != Deny {
				t.Error("stranger should be denied")
			}
		})
	}
}

func TestCanManageUser(t *testing.T) {
	admin := Principal{ID: uuid.New(), Role: entity.RoleAdmin}
	target := uuid.New()

	if CanManageUser(admin, target, ActionDelete) != Allow {
		t.Error("admin should delete other users")
	}
	if got := CanManageUser(admin, admin.ID, ActionDelete); got != DecisionSelf {
		t.Errorf("self delete = %v, want DecisionSelf", got)
	}
	if CanManageUser(admin, admin.ID, ActionUpdate) != Allow {
		t.Error("admin may update own record")
	}
	if CanManageUser(Principal{ID: uuid.New(), Role: entity.RoleModerator}, target, ActionRead) != Deny {
		t.Error("moderator must not manage users")
	}
}

func TestReportListScope(t *testing.T) {
	user := Principal{ID: uuid.New(), Role: entity.RoleUser}
	if s := ReportListScope(user); s.AllOwners || s.OwnerID != user.ID {
		t.Errorf("user scope = %+v", s)
	}
	if s := ReportListScope(Principal{ID: uuid.New(), Role: entity.RoleModerator}); !s.AllOwners {
		t.Error("moderator should see all reports")
	}
}

func TestStatsAndPublish(t *testing.T) {
	for _, role := range []string{entity.RoleAdmin, entity.RoleModerator} {
		p := Principal{ID: uuid.New(), Role: role}
		if !CanViewReportStats(p).Allowed() || !CanPublishAlert(p).Allowed() {
			t.Errorf("%s should be allowed", role)
		}
	}
	p := Principal{ID: uuid.New(), Role: entity.RoleUser}
	if CanViewReportStats(p).Allowed() || CanPublishAlert(p).Allowed() {
		t.Error("plain user should be denied")
	}
}
