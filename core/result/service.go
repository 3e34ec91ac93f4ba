package result

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
)

const resultPublishedTemplate = "result_published"

var (
	// errors
	ErrNotFound          = errors.New("result not found")
	ErrDuplicateRecord   = errors.New("a regular record already exists for this student, semester and exam type")
	ErrHasRemedials      = errors.New("record has remedial records chained to it")
	ErrSuperseded        = errors.New("record is superseded by a later remedial record")
	ErrNoRecordsToImport = errors.New("no records to import")

	nowFunc = time.Now
)

type (
	Repository interface {
		// CreateRecord stores a new record. Fails with ErrDuplicateRecord when rec is regular
		// and a regular record already exists for its student, semester and exam type.
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		GetRecordByID(ctx context.Context, id string) (Record, error)
		// GetRegularRecord returns the regular record of a student, semester and exam type.
		GetRegularRecord(ctx context.Context, studentID, semester string, examType ExamType) (Record, error)
		// QueryRecords returns the records matching the filter, oldest first unless ordered otherwise.
		QueryRecords(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Record, error)
		// UpdateRecord saves the student details, course, department, subjects, published flag & UpdatedAt of rec.
		UpdateRecord(ctx context.Context, rec Record) (Record, error)
		SetPublished(ctx context.Context, id string, published bool, updatedAt time.Time) (Record, error)
		DeleteRecordsByID(ctx context.Context, ids ...string) (int, error)
	}

	// Service manages the records' lifecycle and computes results from them.
	Service interface {
		// Upload creates or replaces the regular record of the student, semester & exam type.
		// The record is always left as a draft. The boolean reports whether it was created.
		Upload(ctx context.Context, nr NewRecord) (Record, bool, error)
		Import(ctx context.Context, nrs []NewRecord, publish bool) (ImportReport, error)
		Get(ctx context.Context, id string) (Record, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Record, error)
		// Update replaces the subjects of a record, which sends it back to draft.
		Update(ctx context.Context, id string, ur UpdateRecord) (Record, error)
		SetPublished(ctx context.Context, id string, published bool) (Record, error)
		Delete(ctx context.Context, ids ...string) (int, error)
		FetchRecords(ctx context.Context, studentID, semester string) ([]Record, error)
		FetchPublishedOnly(ctx context.Context, studentID string) ([]Record, error)
		ComputeAggregate(records []Record) (AggregatedResult, error)
		SemesterResult(ctx context.Context, studentID, semester string, publishedOnly bool) (AggregatedResult, error)
		StudentResults(ctx context.Context, studentID string) ([]AggregatedResult, error)
		SubmitRemedial(ctx context.Context, rs RemedialSubmission) (RemedialResult, error)
	}

	service struct {
		repo       Repository
		mailSvc    core.EmailService
		validate   *validator.Validate
		translator ut.Translator
	}

	// ImportFailure describes a record rejected by an import.
	ImportFailure struct {
		Index     int               `json:"index"`
		StudentID string            `json:"student_id"`
		Semester  string            `json:"semester"`
		ExamType  ExamType          `json:"exam_type"`
		Errors    map[string]string `json:"errors"`
	}

	ImportReport struct {
		Created   int             `json:"created"`
		Updated   int             `json:"updated"`
		Published int             `json:"published"`
		Failed    []ImportFailure `json:"failed"`
	}

	// ResultPublishedData is the template data of the "result published" email.
	ResultPublishedData struct {
		StudentID   string
		StudentName string
		Semester    string
		ExamType    ExamType
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, validate *validator.Validate, translator ut.Translator) Service {
	return &service{
		repo:       repo,
		mailSvc:    mailSvc,
		validate:   validate,
		translator: translator,
	}
}

func (svc *service) validationError(err error) error {
	return core.TranslateValidationErrors(err, svc.translator)
}

func (svc *service) Upload(ctx context.Context, nr NewRecord) (Record, bool, error) {
	if err := nr.Validate(svc.validate); err != nil {
		return Record{}, false, svc.validationError(err)
	}

	rec, err := svc.repo.GetRegularRecord(ctx, nr.StudentID, nr.Semester, nr.ExamType)
	switch {
	case err == nil:
		rec, err = svc.replace(ctx, rec, nr)
		return rec, false, err
	case errors.Cause(err) != ErrNotFound:
		return Record{}, false, errors.Wrap(err, "getting regular record")
	}

	now := nowFunc().UTC()
	rec, err = svc.repo.CreateRecord(ctx, Record{
		ID:           uuid.NewString(),
		StudentID:    nr.StudentID,
		StudentName:  nr.StudentName,
		StudentEmail: nr.StudentEmail,
		Course:       nr.Course,
		Department:   nr.Department,
		Semester:     nr.Semester,
		ExamType:     nr.ExamType,
		Subjects:     nr.Subjects,
		Variant:      Regular(),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Cause(err) == ErrDuplicateRecord {
		// lost a race against a concurrent upload: last writer wins
		if rec, err = svc.repo.GetRegularRecord(ctx, nr.StudentID, nr.Semester, nr.ExamType); err != nil {
			return Record{}, false, errors.Wrap(err, "getting regular record")
		}
		rec, err = svc.replace(ctx, rec, nr)
		return rec, false, err
	}
	if err != nil {
		return Record{}, false, errors.Wrap(err, "creating record")
	}
	return rec, true, nil
}

// replace overwrites rec with an upload and sends it back to draft.
func (svc *service) replace(ctx context.Context, rec Record, nr NewRecord) (Record, error) {
	if nr.StudentName != "" {
		rec.StudentName = nr.StudentName
	}
	if nr.StudentEmail != "" {
		rec.StudentEmail = nr.StudentEmail
	}
	if nr.Course != "" {
		rec.Course = nr.Course
	}
	if nr.Department != "" {
		rec.Department = nr.Department
	}
	rec.Subjects = nr.Subjects
	rec.Published = false
	rec.UpdatedAt = nowFunc().UTC()

	rec, err := svc.repo.UpdateRecord(ctx, rec)
	return rec, errors.Wrap(err, "updating record")
}

// Import uploads records one by one. Invalid records are reported and skipped, valid ones are applied.
// Published records are published right after their upload.
func (svc *service) Import(ctx context.Context, nrs []NewRecord, publish bool) (ImportReport, error) {
	var report ImportReport
	if len(nrs) == 0 {
		return report, core.NewValidationError(ErrNoRecordsToImport)
	}

	for i, nr := range nrs {
		rec, created, err := svc.Upload(ctx, nr)
		if err != nil {
			if vErr, ok := errors.Cause(err).(*core.ValidationError); ok {
				flds := vErr.FieldsMap()
				if len(flds) == 0 {
					flds = map[string]string{"error": vErr.Error()}
				}
				report.Failed = append(report.Failed, ImportFailure{
					Index:     i,
					StudentID: nr.StudentID,
					Semester:  nr.Semester,
					ExamType:  nr.ExamType,
					Errors:    flds,
				})
				continue
			}
			return report, errors.Wrapf(err, "importing record %d", i)
		}

		if created {
			report.Created++
		} else {
			report.Updated++
		}

		if publish {
			if _, err := svc.SetPublished(ctx, rec.ID, true); err != nil {
				return report, errors.Wrapf(err, "publishing record %d", i)
			}
			report.Published++
		}
	}
	return report, nil
}

func (svc *service) Get(ctx context.Context, id string) (Record, error) {
	return svc.repo.GetRecordByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Record, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryRecords(ctx, filter, ordering...)
}

func (svc *service) Update(ctx context.Context, id string, ur UpdateRecord) (Record, error) {
	rec, err := svc.repo.GetRecordByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if err := ur.Validate(rec, svc.validate); err != nil {
		return Record{}, svc.validationError(err)
	}
	if err := svc.checkEditable(ctx, rec); err != nil {
		return Record{}, err
	}

	rec.Course = ur.Course
	rec.Department = ur.Department
	rec.Subjects = ur.Subjects
	rec.Published = false // edits are never visible to students before being published again
	rec.UpdatedAt = nowFunc().UTC()

	rec, err = svc.repo.UpdateRecord(ctx, rec)
	return rec, errors.Wrap(err, "updating record")
}

// checkEditable only lets the last record of a remedial chain be edited,
// as every remedial record carries the subjects of the records before it.
func (svc *service) checkEditable(ctx context.Context, rec Record) error {
	originalID := rec.ID
	if rec.IsRemedial() {
		originalID = rec.Variant.OriginalID
	}
	chain, err := svc.remedialChain(ctx, originalID)
	if err != nil {
		return err
	}
	switch {
	case len(chain) == 0:
		return nil
	case !rec.IsRemedial():
		return core.NewValidationError(ErrHasRemedials)
	case chain[len(chain)-1].ID != rec.ID:
		return core.NewValidationError(ErrSuperseded)
	}
	return nil
}

// remedialChain returns the remedial records chained to a regular record, oldest first.
func (svc *service) remedialChain(ctx context.Context, originalID string) ([]Record, error) {
	chain, err := svc.repo.QueryRecords(ctx, &QueryFilter{OriginalID: originalID})
	if err != nil {
		return nil, errors.Wrap(err, "querying remedial records")
	}
	sort.SliceStable(chain, func(i, j int) bool { return chain[i].CreatedAt.Before(chain[j].CreatedAt) })
	return chain, nil
}

func (svc *service) SetPublished(ctx context.Context, id string, published bool) (Record, error) {
	orig, err := svc.repo.GetRecordByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if orig.Published == published {
		return orig, nil
	}

	rec, err := svc.repo.SetPublished(ctx, id, published, nowFunc().UTC())
	if err != nil {
		return Record{}, errors.Wrap(err, "setting published")
	}
	if published {
		svc.sendResultPublishedMail(rec)
	}
	return rec, nil
}

func (svc *service) sendResultPublishedMail(rec Record) {
	if rec.StudentEmail == "" || svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: rec.StudentName, Address: rec.StudentEmail}},
		Subject:      fmt.Sprintf("%s: %s results published", rec.Semester, rec.ExamType),
		TemplateName: resultPublishedTemplate,
		TemplateData: ResultPublishedData{
			StudentID:   rec.StudentID,
			StudentName: rec.StudentName,
			Semester:    rec.Semester,
			ExamType:    rec.ExamType,
		},
	})
}

// Delete deletes records by ID. A regular record cannot be deleted while remedial records
// chained to it survive the deletion.
func (svc *service) Delete(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	deleted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		deleted[id] = struct{}{}
	}

	var flds []core.FieldError
	for _, id := range ids {
		remedials, err := svc.remedialChain(ctx, id)
		if err != nil {
			return 0, err
		}
		for _, rem := range remedials {
			if _, ok := deleted[rem.ID]; !ok {
				flds = append(flds, core.FieldError{Field: id, Error: ErrHasRemedials.Error()})
				break
			}
		}
	}
	if len(flds) > 0 {
		return 0, core.NewValidationError(ErrHasRemedials, flds...)
	}

	n, err := svc.repo.DeleteRecordsByID(ctx, ids...)
	return n, errors.Wrap(err, "deleting records")
}

func (svc *service) FetchRecords(ctx context.Context, studentID, semester string) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, &QueryFilter{
		StudentID: core.CleanString(studentID),
		Semester:  core.CleanString(semester),
	})
}

func (svc *service) FetchPublishedOnly(ctx context.Context, studentID string) ([]Record, error) {
	published := true
	return svc.repo.QueryRecords(ctx, &QueryFilter{
		StudentID: core.CleanString(studentID),
		Published: &published,
	})
}

func (svc *service) ComputeAggregate(records []Record) (AggregatedResult, error) {
	return Aggregate(records)
}

// SemesterResult aggregates the records of a student's semester, drafts included unless publishedOnly.
func (svc *service) SemesterResult(ctx context.Context, studentID, semester string, publishedOnly bool) (AggregatedResult, error) {
	var records []Record
	var err error
	if publishedOnly {
		records, err = svc.FetchPublishedOnly(ctx, studentID)
		records = filterSemester(records, core.CleanString(semester))
	} else {
		records, err = svc.FetchRecords(ctx, studentID, semester)
	}
	if err != nil {
		return AggregatedResult{}, errors.Wrap(err, "fetching records")
	}
	return Aggregate(records)
}

// StudentResults returns the published result of every semester of a student,
// semesters ordered by their first published record.
func (svc *service) StudentResults(ctx context.Context, studentID string) ([]AggregatedResult, error) {
	records, err := svc.FetchPublishedOnly(ctx, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "fetching published records")
	}

	var semesters []string
	bySemester := make(map[string][]Record)
	for _, rec := range records {
		if _, ok := bySemester[rec.Semester]; !ok {
			semesters = append(semesters, rec.Semester)
		}
		bySemester[rec.Semester] = append(bySemester[rec.Semester], rec)
	}

	results := make([]AggregatedResult, 0, len(semesters))
	for _, sem := range semesters {
		res, err := Aggregate(bySemester[sem])
		if err != nil {
			return nil, errors.Wrapf(err, "aggregating %s", sem)
		}
		results = append(results, res)
	}
	return results, nil
}

func (svc *service) SubmitRemedial(ctx context.Context, rs RemedialSubmission) (RemedialResult, error) {
	if err := rs.Validate(svc.validate); err != nil {
		return RemedialResult{}, svc.validationError(err)
	}

	orig, err := svc.repo.GetRegularRecord(ctx, rs.StudentID, rs.Semester, rs.ExamType)
	if err != nil {
		return RemedialResult{}, err
	}

	// merge onto the latest final record so that earlier remedial corrections carry over
	chain, err := svc.remedialChain(ctx, orig.ID)
	if err != nil {
		return RemedialResult{}, err
	}
	base := orig
	if n := len(chain); n > 0 {
		base.Subjects = chain[n-1].Subjects
	}

	rec, err := MergeRemedial(base, rs.Subjects)
	if err != nil {
		return RemedialResult{}, err
	}
	now := nowFunc().UTC()
	rec.ID = uuid.NewString()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	rec, err = svc.repo.CreateRecord(ctx, rec)
	if err != nil {
		return RemedialResult{}, errors.Wrap(err, "creating remedial record")
	}
	passed, total := PassCount(rec.Subjects)
	return RemedialResult{Record: rec, Passed: passed, Total: total}, nil
}

func filterSemester(records []Record, semester string) []Record {
	var filtered []Record
	for _, rec := range records {
		if rec.Semester == semester {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
