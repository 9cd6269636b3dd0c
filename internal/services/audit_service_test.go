package services

import (
	"strings"
	"testing"

	"budgeteer/internal/models"
	"budgeteer/internal/testutil"
)

func TestAuditLog(t *testing.T) {
	t.Run("records_entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)

		user := testutil.CreateTestUser(t, db)
		svc.Log(user.ID, "CREATE_GROUP", "group", "g-1", "127.0.0.1", map[string]interface{}{"name": "Trip"})

		var entry models.AuditLog
		if err := db.Where("user_id = ?", user.ID).First(&entry).Error; err != nil {
			t.Fatalf("expected audit entry: %v", err)
		}
		if entry.Action != "CREATE_GROUP" || entry.ResourceID != "g-1" {
			t.Errorf("unexpected entry: %+v", entry)
		}
		if !strings.Contains(entry.Changes, `"name":"Trip"`) {
			t.Errorf("expected changes JSON, got %s", entry.Changes)
		}
	})

	t.Run("unmarshalable_changes_still_recorded", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)

		user := testutil.CreateTestUser(t, db)
		svc.Log(user.ID, "UPDATE", "expense", "e-1", "", map[string]interface{}{"bad": make(chan int)})

		var entry models.AuditLog
		if err := db.Where("user_id = ?", user.ID).First(&entry).Error; err != nil {
			t.Fatalf("expected audit entry: %v", err)
		}
		if entry.Changes != "{}" {
			t.Errorf("expected empty changes, got %s", entry.Changes)
		}
	})
}
