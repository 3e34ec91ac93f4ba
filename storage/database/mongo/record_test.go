//go:build integration

package mongorepos

import (
	"context"
	"os"
	"testing"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
	"github.com/PatelMeet-1/Student-Management-system-sub000/storage/database/repotest"
)

// Requires a running mongodb server at TEST_DATABASE_URI.
func TestRecordRepository(t *testing.T) {
	_ = os.Setenv("ENV", "TEST")
	conf := core.NewConfig()
	conf.Database.Name += "_test"
	ctx := context.Background()

	db, err := Open(ctx, conf)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = db.Client().Disconnect(ctx)
	})

	repotest.Run(t, func(t *testing.T) result.Repository {
		if err := db.Collection(recordsCollection).Drop(ctx); err != nil {
			t.Fatalf("dropping records: %v", err)
		}
		if err := EnsureIndexes(ctx, db); err != nil {
			t.Fatalf("EnsureIndexes() error = %v", err)
		}
		return NewRecordRepository(db)
	})
}
