package bootstrap

import (
	"testing"

	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/pkg/database/dbtest"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedAdminIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	if err := Migrate(db); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := SeedAdmin(t.Context(), db, " Admin@PunjabReady.gov.in ", "s3cret-pass"); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	var admins []entity.User
	if err := db.Where("role = ?", entity.RoleAdmin).Find(&admins).Error; err != nil {
		t.Fatal(err)
	}
	if len(admins) != 1 {
		t.Fatalf("admins = %d, want 1", len(admins))
	}
	a := admins[0]
	if a.Email != "admin@punjabready.gov.in" || !a.IsActive {
		t.Errorf("admin = %+v", a)
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("s3cret-pass")) != nil {
		t.Error("password not hashed with the seed password")
	}

	if err := SeedAdmin(t.Context(), db, "other@punjabready.gov.in", ""); err == nil {
		t.Error("empty password accepted")
	}
}
