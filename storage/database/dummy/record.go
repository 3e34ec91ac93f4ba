package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
)

type recordRepository struct {
	db *recordTable
}

var _ result.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *DB) result.Repository {
	return &recordRepository{db: db.record}
}

func copyRecord(rec result.Record) result.Record {
	subjects := make([]result.SubjectScore, len(rec.Subjects))
	copy(subjects, rec.Subjects)
	rec.Subjects = subjects
	return rec
}

func (repo *recordRepository) findRegular(studentID, semester string, examType result.ExamType) (*recordRow, bool) {
	for _, row := range repo.db.table {
		if !row.rec.IsRemedial() &&
			row.rec.StudentID == studentID &&
			row.rec.Semester == semester &&
			row.rec.ExamType == examType {
			return row, true
		}
	}
	return nil, false
}

func (repo *recordRepository) CreateRecord(_ context.Context, rec result.Record) (result.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if !rec.IsRemedial() {
		if _, ok := repo.findRegular(rec.StudentID, rec.Semester, rec.ExamType); ok {
			return result.Record{}, result.ErrDuplicateRecord
		}
	}

	repo.db.seq++
	rec = copyRecord(rec)
	repo.db.table[rec.ID] = &recordRow{seq: repo.db.seq, rec: rec}
	return copyRecord(rec), nil
}

func (repo *recordRepository) GetRecordByID(_ context.Context, id string) (result.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if row, ok := repo.db.table[id]; ok {
		return copyRecord(row.rec), nil
	}
	return result.Record{}, result.ErrNotFound
}

func (repo *recordRepository) GetRegularRecord(_ context.Context, studentID, semester string, examType result.ExamType) (result.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if row, ok := repo.findRegular(studentID, semester, examType); ok {
		return copyRecord(row.rec), nil
	}
	return result.Record{}, result.ErrNotFound
}

func (repo *recordRepository) QueryRecords(_ context.Context, filter *result.QueryFilter, ordering ...core.DBOrdering) ([]result.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rows := make([]*recordRow, 0, len(repo.db.table))
	for _, row := range repo.db.table {
		if filter.Match(row.rec) {
			rows = append(rows, row)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareField(rows[i].rec, rows[j].rec, ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		if !rows[i].rec.CreatedAt.Equal(rows[j].rec.CreatedAt) {
			return rows[i].rec.CreatedAt.Before(rows[j].rec.CreatedAt)
		}
		return rows[i].seq < rows[j].seq
	})

	records := make([]result.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, copyRecord(row.rec))
	}
	return records, nil
}

// compareField compares two records on an orderable field. Unknown fields compare equal.
func compareField(a, b result.Record, field string) int {
	switch field {
	case "student_id":
		return strings.Compare(a.StudentID, b.StudentID)
	case "student_name":
		return strings.Compare(a.StudentName, b.StudentName)
	case "semester":
		return strings.Compare(a.Semester, b.Semester)
	case "exam_type":
		return a.ExamType.Rank() - b.ExamType.Rank()
	case "course":
		return strings.Compare(a.Course, b.Course)
	case "department":
		return strings.Compare(a.Department, b.Department)
	case "created_at":
		return compareTime(a.CreatedAt, b.CreatedAt)
	case "updated_at":
		return compareTime(a.UpdatedAt, b.UpdatedAt)
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func (repo *recordRepository) UpdateRecord(_ context.Context, rec result.Record) (result.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	row, ok := repo.db.table[rec.ID]
	if !ok {
		return result.Record{}, result.ErrNotFound
	}
	row.rec.StudentName = rec.StudentName
	row.rec.StudentEmail = rec.StudentEmail
	row.rec.Course = rec.Course
	row.rec.Department = rec.Department
	row.rec.Subjects = copyRecord(rec).Subjects
	row.rec.Published = rec.Published
	row.rec.UpdatedAt = rec.UpdatedAt
	return copyRecord(row.rec), nil
}

func (repo *recordRepository) SetPublished(_ context.Context, id string, published bool, updatedAt time.Time) (result.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	row, ok := repo.db.table[id]
	if !ok {
		return result.Record{}, result.ErrNotFound
	}
	row.rec.Published = published
	row.rec.UpdatedAt = updatedAt
	return copyRecord(row.rec), nil
}

func (repo *recordRepository) DeleteRecordsByID(_ context.Context, ids ...string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			n++
		}
	}
	return n, nil
}
