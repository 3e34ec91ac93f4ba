package mongorepos

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
)

// exam type names sort in canonical order
var orderingFields = map[string]string{
	"student_id":   "student_id",
	"student_name": "student_name",
	"semester":     "semester",
	"exam_type":    "exam_type",
	"course":       "course",
	"department":   "department",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
}

type (
	subjectDoc struct {
		Name     string  `bson:"name"`
		Marks    float64 `bson:"marks"`
		MaxMarks float64 `bson:"max_marks"`
	}

	recordDoc struct {
		ID           string       `bson:"_id"`
		StudentID    string       `bson:"student_id"`
		StudentName  string       `bson:"student_name"`
		StudentEmail string       `bson:"student_email,omitempty"`
		Course       string       `bson:"course"`
		Department   string       `bson:"department"`
		Semester     string       `bson:"semester"`
		ExamType     string       `bson:"exam_type"`
		Subjects     []subjectDoc `bson:"subjects"`
		Published    bool         `bson:"published"`
		Kind         string       `bson:"kind"`
		OriginalID   string       `bson:"original_id,omitempty"`
		CreatedAt    time.Time    `bson:"created_at"`
		UpdatedAt    time.Time    `bson:"updated_at"`
	}
)

func toDoc(rec result.Record) recordDoc {
	doc := recordDoc{
		ID:           rec.ID,
		StudentID:    rec.StudentID,
		StudentName:  rec.StudentName,
		StudentEmail: rec.StudentEmail,
		Course:       rec.Course,
		Department:   rec.Department,
		Semester:     rec.Semester,
		ExamType:     string(rec.ExamType),
		Subjects:     make([]subjectDoc, 0, len(rec.Subjects)),
		Published:    rec.Published,
		Kind:         string(rec.Variant.Kind),
		OriginalID:   rec.Variant.OriginalID,
		CreatedAt:    rec.CreatedAt.UTC(),
		UpdatedAt:    rec.UpdatedAt.UTC(),
	}
	if doc.Kind == "" {
		doc.Kind = string(result.KindRegular)
	}
	for _, sub := range rec.Subjects {
		doc.Subjects = append(doc.Subjects, subjectDoc{Name: sub.Name, Marks: sub.Marks, MaxMarks: sub.MaxMarks})
	}
	return doc
}

func (doc recordDoc) toRecord() result.Record {
	rec := result.Record{
		ID:           doc.ID,
		StudentID:    doc.StudentID,
		StudentName:  doc.StudentName,
		StudentEmail: doc.StudentEmail,
		Course:       doc.Course,
		Department:   doc.Department,
		Semester:     doc.Semester,
		ExamType:     result.ExamType(doc.ExamType),
		Subjects:     make([]result.SubjectScore, 0, len(doc.Subjects)),
		Published:    doc.Published,
		Variant:      result.Variant{Kind: result.Kind(doc.Kind), OriginalID: doc.OriginalID},
		CreatedAt:    doc.CreatedAt.UTC(), // mongo keeps milliseconds only
		UpdatedAt:    doc.UpdatedAt.UTC(),
	}
	for _, sub := range doc.Subjects {
		rec.Subjects = append(rec.Subjects, result.SubjectScore{Name: sub.Name, Marks: sub.Marks, MaxMarks: sub.MaxMarks})
	}
	return rec
}

type recordRepository struct {
	coll *mongo.Collection
}

var _ result.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *mongo.Database) result.Repository {
	return &recordRepository{coll: db.Collection(recordsCollection)}
}

func (repo *recordRepository) findOne(ctx context.Context, filter interface{}) (result.Record, error) {
	var doc recordDoc
	if err := repo.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return result.Record{}, result.ErrNotFound
		}
		return result.Record{}, errors.Wrap(err, "finding record")
	}
	return doc.toRecord(), nil
}

func (repo *recordRepository) CreateRecord(ctx context.Context, rec result.Record) (result.Record, error) {
	doc := toDoc(rec)
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return result.Record{}, result.ErrDuplicateRecord
		}
		return result.Record{}, errors.Wrap(err, "inserting record")
	}
	return doc.toRecord(), nil
}

func (repo *recordRepository) GetRecordByID(ctx context.Context, id string) (result.Record, error) {
	return repo.findOne(ctx, bson.M{"_id": id})
}

func (repo *recordRepository) GetRegularRecord(ctx context.Context, studentID, semester string, examType result.ExamType) (result.Record, error) {
	return repo.findOne(ctx, bson.M{
		"student_id": studentID,
		"semester":   semester,
		"exam_type":  string(examType),
		"kind":       string(result.KindRegular),
	})
}

func equalFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}

func buildFilter(qf *result.QueryFilter) bson.M {
	filter := bson.M{}
	if qf == nil {
		return filter
	}
	if qf.StudentID != "" {
		filter["student_id"] = qf.StudentID
	}
	if qf.Semester != "" {
		filter["semester"] = qf.Semester
	}
	if qf.ExamType != "" {
		filter["exam_type"] = string(qf.ExamType)
	}
	if qf.Course != "" {
		filter["course"] = equalFold(qf.Course)
	}
	if qf.Department != "" {
		filter["department"] = equalFold(qf.Department)
	}
	if qf.Published != nil {
		filter["published"] = *qf.Published
	}
	if qf.Remedial != nil {
		kind := result.KindRegular
		if *qf.Remedial {
			kind = result.KindRemedial
		}
		filter["kind"] = string(kind)
	}
	if qf.OriginalID != "" {
		filter["original_id"] = qf.OriginalID
	}
	return filter
}

// buildSort keeps whitelisted fields only, oldest records first by default.
func buildSort(ordering []core.DBOrdering) bson.D {
	sort := make(bson.D, 0, len(ordering)+2)
	seen := make(map[string]bool, len(ordering))
	for _, ord := range ordering {
		fld, ok := orderingFields[ord.Field]
		if !ok || seen[fld] {
			continue
		}
		seen[fld] = true
		dir := 1
		if !ord.Ascending {
			dir = -1
		}
		sort = append(sort, bson.E{Key: fld, Value: dir})
	}
	if !seen["created_at"] {
		sort = append(sort, bson.E{Key: "created_at", Value: 1})
	}
	return append(sort, bson.E{Key: "_id", Value: 1})
}

func (repo *recordRepository) QueryRecords(ctx context.Context, filter *result.QueryFilter, ordering ...core.DBOrdering) ([]result.Record, error) {
	cur, err := repo.coll.Find(ctx, buildFilter(filter), options.Find().SetSort(buildSort(ordering)))
	if err != nil {
		return nil, errors.Wrap(err, "finding records")
	}
	defer func() { _ = cur.Close(ctx) }()

	records := make([]result.Record, 0)
	for cur.Next(ctx) {
		var doc recordDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding record")
		}
		records = append(records, doc.toRecord())
	}
	return records, errors.Wrap(cur.Err(), "iterating records")
}

func (repo *recordRepository) UpdateRecord(ctx context.Context, rec result.Record) (result.Record, error) {
	doc := toDoc(rec)
	update := bson.M{"$set": bson.M{
		"student_name":  doc.StudentName,
		"student_email": doc.StudentEmail,
		"course":        doc.Course,
		"department":    doc.Department,
		"subjects":      doc.Subjects,
		"published":     doc.Published,
		"updated_at":    doc.UpdatedAt,
	}}
	return repo.findOneAndUpdate(ctx, rec.ID, update)
}

func (repo *recordRepository) SetPublished(ctx context.Context, id string, published bool, updatedAt time.Time) (result.Record, error) {
	return repo.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{
		"published":  published,
		"updated_at": updatedAt.UTC(),
	}})
}

func (repo *recordRepository) findOneAndUpdate(ctx context.Context, id string, update bson.M) (result.Record, error) {
	var doc recordDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return result.Record{}, result.ErrNotFound
		}
		return result.Record{}, errors.Wrap(err, "updating record")
	}
	return doc.toRecord(), nil
}

func (repo *recordRepository) DeleteRecordsByID(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := repo.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, errors.Wrap(err, "deleting records")
	}
	return int(res.DeletedCount), nil
}
