package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
)

const uniqueViolation = "23505"

const recordColumns = `id, student_id, student_name, student_email, course, department, semester,
	exam_type, subjects, published, kind, original_id, created_at, updated_at`

var orderingColumns = map[string]string{
	"student_id":   "student_id",
	"student_name": "student_name",
	"semester":     "semester",
	"exam_type":    "CASE exam_type WHEN 'internal' THEN 0 WHEN 'practical' THEN 1 ELSE 2 END",
	"course":       "course",
	"department":   "department",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
}

type recordRow struct {
	ID           string      `db:"id"`
	StudentID    string      `db:"student_id"`
	StudentName  string      `db:"student_name"`
	StudentEmail null.String `db:"student_email"`
	Course       string      `db:"course"`
	Department   string      `db:"department"`
	Semester     string      `db:"semester"`
	ExamType     string      `db:"exam_type"`
	Subjects     null.JSON   `db:"subjects"`
	Published    bool        `db:"published"`
	Kind         string      `db:"kind"`
	OriginalID   null.String `db:"original_id"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func toRow(rec result.Record) (recordRow, error) {
	row := recordRow{
		ID:           rec.ID,
		StudentID:    rec.StudentID,
		StudentName:  rec.StudentName,
		StudentEmail: null.NewString(rec.StudentEmail, rec.StudentEmail != ""),
		Course:       rec.Course,
		Department:   rec.Department,
		Semester:     rec.Semester,
		ExamType:     string(rec.ExamType),
		Published:    rec.Published,
		Kind:         string(rec.Variant.Kind),
		OriginalID:   null.NewString(rec.Variant.OriginalID, rec.Variant.OriginalID != ""),
		CreatedAt:    rec.CreatedAt.UTC(),
		UpdatedAt:    rec.UpdatedAt.UTC(),
	}
	if row.Kind == "" {
		row.Kind = string(result.KindRegular)
	}
	subjects := rec.Subjects
	if subjects == nil {
		subjects = []result.SubjectScore{}
	}
	if err := row.Subjects.Marshal(subjects); err != nil {
		return recordRow{}, errors.Wrap(err, "encoding subjects")
	}
	return row, nil
}

func (row recordRow) toRecord() (result.Record, error) {
	rec := result.Record{
		ID:           row.ID,
		StudentID:    row.StudentID,
		StudentName:  row.StudentName,
		StudentEmail: row.StudentEmail.String,
		Course:       row.Course,
		Department:   row.Department,
		Semester:     row.Semester,
		ExamType:     result.ExamType(row.ExamType),
		Published:    row.Published,
		Variant:      result.Variant{Kind: result.Kind(row.Kind), OriginalID: row.OriginalID.String},
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if err := row.Subjects.Unmarshal(&rec.Subjects); err != nil {
		return result.Record{}, errors.Wrap(err, "decoding subjects")
	}
	return rec, nil
}

type recordRepository struct {
	db *sqlx.DB
}

var _ result.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *sqlx.DB) result.Repository {
	return &recordRepository{db: db}
}

func (repo *recordRepository) get(ctx context.Context, query string, args ...interface{}) (result.Record, error) {
	var row recordRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return result.Record{}, result.ErrNotFound
		}
		return result.Record{}, errors.Wrap(err, "selecting record")
	}
	return row.toRecord()
}

func (repo *recordRepository) CreateRecord(ctx context.Context, rec result.Record) (result.Record, error) {
	row, err := toRow(rec)
	if err != nil {
		return result.Record{}, err
	}

	q := `INSERT INTO semester_records (` + recordColumns + `)
	VALUES (:id, :student_id, :student_name, :student_email, :course, :department, :semester,
		:exam_type, :subjects, :published, :kind, :original_id, :created_at, :updated_at)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return result.Record{}, result.ErrDuplicateRecord
		}
		return result.Record{}, errors.Wrap(err, "inserting record")
	}
	return row.toRecord()
}

func (repo *recordRepository) GetRecordByID(ctx context.Context, id string) (result.Record, error) {
	if !isUUID(id) {
		return result.Record{}, result.ErrNotFound
	}
	return repo.get(ctx, `SELECT `+recordColumns+` FROM semester_records WHERE id = $1`, id)
}

func (repo *recordRepository) GetRegularRecord(ctx context.Context, studentID, semester string, examType result.ExamType) (result.Record, error) {
	q := `SELECT ` + recordColumns + ` FROM semester_records
	WHERE student_id = $1 AND semester = $2 AND exam_type = $3 AND kind = $4`
	return repo.get(ctx, q, studentID, semester, string(examType), string(result.KindRegular))
}

func (repo *recordRepository) QueryRecords(ctx context.Context, filter *result.QueryFilter, ordering ...core.DBOrdering) ([]result.Record, error) {
	var conds []string
	var args []interface{}
	where := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter != nil {
		if filter.StudentID != "" {
			where("student_id = $%d", filter.StudentID)
		}
		if filter.Semester != "" {
			where("semester = $%d", filter.Semester)
		}
		if filter.ExamType != "" {
			where("exam_type = $%d", string(filter.ExamType))
		}
		if filter.Course != "" {
			where("lower(course) = lower($%d)", filter.Course)
		}
		if filter.Department != "" {
			where("lower(department) = lower($%d)", filter.Department)
		}
		if filter.Published != nil {
			where("published = $%d", *filter.Published)
		}
		if filter.Remedial != nil {
			kind := result.KindRegular
			if *filter.Remedial {
				kind = result.KindRemedial
			}
			where("kind = $%d", string(kind))
		}
		if filter.OriginalID != "" {
			if !isUUID(filter.OriginalID) {
				return []result.Record{}, nil
			}
			where("original_id = $%d", filter.OriginalID)
		}
	}

	q := `SELECT ` + recordColumns + ` FROM semester_records`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY ` + orderBy(ordering)

	var rows []recordRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting records")
	}
	records := make([]result.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// orderBy builds the ORDER BY clause from whitelisted fields only, oldest records first by default.
func orderBy(ordering []core.DBOrdering) string {
	clauses := make([]string, 0, len(ordering)+2)
	for _, ord := range ordering {
		col, ok := orderingColumns[ord.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if !ord.Ascending {
			dir = "DESC"
		}
		clauses = append(clauses, col+" "+dir)
	}
	return strings.Join(append(clauses, "created_at ASC", "id ASC"), ", ")
}

func (repo *recordRepository) UpdateRecord(ctx context.Context, rec result.Record) (result.Record, error) {
	row, err := toRow(rec)
	if err != nil {
		return result.Record{}, err
	}

	q := `UPDATE semester_records SET
		student_name = :student_name, student_email = :student_email, course = :course,
		department = :department, subjects = :subjects, published = :published, updated_at = :updated_at
	WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return result.Record{}, errors.Wrap(err, "updating record")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return result.Record{}, result.ErrNotFound
	}
	return repo.GetRecordByID(ctx, rec.ID)
}

func (repo *recordRepository) SetPublished(ctx context.Context, id string, published bool, updatedAt time.Time) (result.Record, error) {
	if !isUUID(id) {
		return result.Record{}, result.ErrNotFound
	}
	q := `UPDATE semester_records SET published = $1, updated_at = $2 WHERE id = $3 RETURNING ` + recordColumns
	return repo.get(ctx, q, published, updatedAt.UTC(), id)
}

func (repo *recordRepository) DeleteRecordsByID(ctx context.Context, ids ...string) (int, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	q, args, err := sqlx.In(`DELETE FROM semester_records WHERE id IN (?)`, valid)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting records")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "counting deleted records")
}
