//go:build integration

package sqlxrepos

import (
	"context"
	"os"
	"testing"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
	"github.com/PatelMeet-1/Student-Management-system-sub000/storage/database"
	"github.com/PatelMeet-1/Student-Management-system-sub000/storage/database/repotest"
)

// Requires a running postgres server, configured through the TEST_DATABASE_* env variables.
func TestRecordRepository(t *testing.T) {
	_ = os.Setenv("ENV", "TEST")
	conf := core.NewConfig()
	ctx := context.Background()

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		t.Fatalf("CreateIfNotExist() error = %v", err)
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db.DB, "up"); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	repotest.Run(t, func(t *testing.T) result.Repository {
		if _, err := db.ExecContext(ctx, "TRUNCATE semester_records"); err != nil {
			t.Fatalf("truncating records: %v", err)
		}
		return NewRecordRepository(db)
	})
}
