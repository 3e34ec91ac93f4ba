// Package repotest holds the behaviour every result.Repository implementation must share.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
)

// Run runs the repository tests. newRepo must return an empty repository.
func Run(t *testing.T, newRepo func(t *testing.T) result.Repository) {
	tests := []struct {
		name string
		fn   func(t *testing.T, repo result.Repository)
	}{
		{name: "create & get", fn: testCreateGet},
		{name: "regular uniqueness", fn: testRegularUniqueness},
		{name: "query", fn: testQuery},
		{name: "update", fn: testUpdate},
		{name: "delete", fn: testDelete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newRepo(t))
		})
	}
}

var start = time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)

func newRecord(studentID, semester string, et result.ExamType, variant result.Variant, createdAt time.Time) result.Record {
	return result.Record{
		ID:           uuid.NewString(),
		StudentID:    studentID,
		StudentName:  "Student " + studentID,
		StudentEmail: studentID + "@results.test",
		Course:       "BCA",
		Department:   "Computer Science",
		Semester:     semester,
		ExamType:     et,
		Subjects: []result.SubjectScore{
			{Name: "DBMS", Marks: 28.5, MaxMarks: 30},
			{Name: "OS", Marks: 12, MaxMarks: 30},
		},
		Variant:   variant,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func create(t *testing.T, repo result.Repository, rec result.Record) result.Record {
	t.Helper()
	rec, err := repo.CreateRecord(context.Background(), rec)
	if err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}
	return rec
}

func ids(records []result.Record) []string {
	res := make([]string, 0, len(records))
	for _, rec := range records {
		res = append(res, rec.ID)
	}
	return res
}

func testCreateGet(t *testing.T, repo result.Repository) {
	ctx := context.Background()
	rec := create(t, repo, newRecord("S1", "Sem 3", result.ExamInternal, result.Regular(), start))

	got, err := repo.GetRecordByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetRecordByID() error = %v", err)
	}
	assert.Equal(t, rec, got)

	got, err = repo.GetRegularRecord(ctx, "S1", "Sem 3", result.ExamInternal)
	if err != nil || got.ID != rec.ID {
		t.Errorf("GetRegularRecord() = %v, %v", got.ID, err)
	}

	if _, err = repo.GetRecordByID(ctx, uuid.NewString()); err != result.ErrNotFound {
		t.Errorf("GetRecordByID() error = %v, want %v", err, result.ErrNotFound)
	}
	if _, err = repo.GetRegularRecord(ctx, "S1", "Sem 3", result.ExamUniversity); err != result.ErrNotFound {
		t.Errorf("GetRegularRecord() error = %v, want %v", err, result.ErrNotFound)
	}
}

func testRegularUniqueness(t *testing.T, repo result.Repository) {
	ctx := context.Background()
	orig := create(t, repo, newRecord("S1", "Sem 3", result.ExamUniversity, result.Regular(), start))

	_, err := repo.CreateRecord(ctx, newRecord("S1", "Sem 3", result.ExamUniversity, result.Regular(), start))
	if err != result.ErrDuplicateRecord {
		t.Errorf("CreateRecord() error = %v, want %v", err, result.ErrDuplicateRecord)
	}

	// any number of remedial records
	for i := 0; i < 2; i++ {
		create(t, repo, newRecord("S1", "Sem 3", result.ExamUniversity, result.Remedial(orig.ID), start.Add(time.Hour)))
	}
	// the remedials do not count as the regular record
	got, err := repo.GetRegularRecord(ctx, "S1", "Sem 3", result.ExamUniversity)
	if err != nil || got.ID != orig.ID {
		t.Errorf("GetRegularRecord() = %v, %v; want %v", got.ID, err, orig.ID)
	}
}

func testQuery(t *testing.T, repo result.Repository) {
	ctx := context.Background()
	day := 24 * time.Hour

	s1Int := newRecord("S1", "Sem 3", result.ExamInternal, result.Regular(), start)
	s1Int.Published = true
	s1Int = create(t, repo, s1Int)
	s1Uni := create(t, repo, newRecord("S1", "Sem 3", result.ExamUniversity, result.Regular(), start.Add(day)))
	s1Rem := create(t, repo, newRecord("S1", "Sem 3", result.ExamUniversity, result.Remedial(s1Uni.ID), start.Add(2*day)))
	s2Prac := newRecord("S2", "Sem 4", result.ExamPractical, result.Regular(), start.Add(3*day))
	s2Prac.Course = "MCA"
	s2Prac = create(t, repo, s2Prac)

	published, remedial, regular := true, true, false

	tests := []struct {
		name     string
		filter   *result.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "all", want: ids([]result.Record{s1Int, s1Uni, s1Rem, s2Prac})},
		{name: "student", filter: &result.QueryFilter{StudentID: "S1"}, want: ids([]result.Record{s1Int, s1Uni, s1Rem})},
		{name: "semester & exam type", filter: &result.QueryFilter{Semester: "Sem 3", ExamType: result.ExamUniversity}, want: ids([]result.Record{s1Uni, s1Rem})},
		{name: "course ignores case", filter: &result.QueryFilter{Course: "mca"}, want: ids([]result.Record{s2Prac})},
		{name: "department", filter: &result.QueryFilter{Department: "computer science", StudentID: "S2"}, want: ids([]result.Record{s2Prac})},
		{name: "published", filter: &result.QueryFilter{Published: &published}, want: ids([]result.Record{s1Int})},
		{name: "remedial", filter: &result.QueryFilter{Remedial: &remedial}, want: ids([]result.Record{s1Rem})},
		{name: "regular", filter: &result.QueryFilter{Remedial: &regular, StudentID: "S1"}, want: ids([]result.Record{s1Int, s1Uni})},
		{name: "original", filter: &result.QueryFilter{OriginalID: s1Uni.ID}, want: ids([]result.Record{s1Rem})},
		{name: "no match", filter: &result.QueryFilter{StudentID: "S3"}, want: []string{}},
		{
			name:     "ordering",
			ordering: []core.DBOrdering{{Field: "student_id", Ascending: false}, {Field: "exam_type", Ascending: false}, {Field: "bogus"}},
			want:     ids([]result.Record{s2Prac, s1Uni, s1Rem, s1Int}),
		},
		{
			name:     "newest first",
			ordering: []core.DBOrdering{{Field: "created_at", Ascending: false}},
			want:     ids([]result.Record{s2Prac, s1Rem, s1Uni, s1Int}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.QueryRecords(ctx, tt.filter, tt.ordering...)
			if err != nil {
				t.Fatalf("QueryRecords() error = %v", err)
			}
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func testUpdate(t *testing.T, repo result.Repository) {
	ctx := context.Background()
	rec := newRecord("S1", "Sem 3", result.ExamInternal, result.Regular(), start)
	rec.Published = true
	rec = create(t, repo, rec)

	later := start.Add(time.Hour)
	rec.StudentName = "Jane Doe"
	rec.Subjects = []result.SubjectScore{{Name: "CN", Marks: 20, MaxMarks: 30}}
	rec.Published = false
	rec.UpdatedAt = later
	got, err := repo.UpdateRecord(ctx, rec)
	if err != nil {
		t.Fatalf("UpdateRecord() error = %v", err)
	}
	assert.Equal(t, rec, got)

	got, err = repo.SetPublished(ctx, rec.ID, true, later.Add(time.Hour))
	if err != nil {
		t.Fatalf("SetPublished() error = %v", err)
	}
	if !got.Published || !got.UpdatedAt.Equal(later.Add(time.Hour)) || !got.CreatedAt.Equal(start) {
		t.Errorf("SetPublished() = %+v", got)
	}

	missing := newRecord("S9", "Sem 3", result.ExamInternal, result.Regular(), start)
	if _, err = repo.UpdateRecord(ctx, missing); err != result.ErrNotFound {
		t.Errorf("UpdateRecord() error = %v, want %v", err, result.ErrNotFound)
	}
	if _, err = repo.SetPublished(ctx, missing.ID, true, later); err != result.ErrNotFound {
		t.Errorf("SetPublished() error = %v, want %v", err, result.ErrNotFound)
	}
}

func testDelete(t *testing.T, repo result.Repository) {
	ctx := context.Background()
	a := create(t, repo, newRecord("S1", "Sem 3", result.ExamInternal, result.Regular(), start))
	b := create(t, repo, newRecord("S1", "Sem 3", result.ExamPractical, result.Regular(), start))
	c := create(t, repo, newRecord("S2", "Sem 3", result.ExamPractical, result.Regular(), start))

	n, err := repo.DeleteRecordsByID(ctx, a.ID, b.ID, uuid.NewString())
	if err != nil || n != 2 {
		t.Errorf("DeleteRecordsByID() = %d, %v; want 2", n, err)
	}
	if n, err = repo.DeleteRecordsByID(ctx); err != nil || n != 0 {
		t.Errorf("DeleteRecordsByID() = %d, %v; want 0", n, err)
	}

	got, err := repo.QueryRecords(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []string{c.ID}, ids(got))
}
