package mongorepos

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
)

const recordsCollection = "semester_records"

// Open connects to the MongoDB server at conf.Database.URI and returns the app database.
func Open(ctx context.Context, conf *core.Config) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Database.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "pinging mongodb")
	}
	return client.Database(conf.Database.Name), nil
}

// EnsureIndexes creates the indexes the record repository relies on.
// At most one regular record may exist per student, semester and exam type.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(recordsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "semester", Value: 1}, {Key: "exam_type", Value: 1}},
			Options: options.Index().
				SetName("regular_key").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"kind": string(result.KindRegular)}),
		},
		{
			Keys:    bson.D{{Key: "original_id", Value: 1}},
			Options: options.Index().SetName("original_id"),
		},
	})
	return errors.Wrap(err, "creating indexes")
}
