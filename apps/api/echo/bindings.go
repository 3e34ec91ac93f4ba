package echoapi

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
)

const (
	orderingParam = "ordering"

	errRequiredParam = "this field is required"
	errNotABool      = "must be a boolean"
	errNotANumber    = "must be a number"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// queryParams collects field errors while reading query params.
type queryParams struct {
	values url.Values
	flds   []core.FieldError
}

func newQueryParams(ctx echo.Context) *queryParams {
	return &queryParams{values: ctx.QueryParams()}
}

func (qp *queryParams) fail(name, msg string) {
	qp.flds = append(qp.flds, core.FieldError{Field: name, Error: msg})
}

func (qp *queryParams) String(name string) string {
	return core.CleanString(qp.values.Get(name))
}

func (qp *queryParams) Required(name string) string {
	val := qp.String(name)
	if val == "" {
		qp.fail(name, errRequiredParam)
	}
	return val
}

// Bool returns nil when the param is missing.
func (qp *queryParams) Bool(name string) *bool {
	val := qp.String(name)
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		qp.fail(name, errNotABool)
		return nil
	}
	return &b
}

func (qp *queryParams) Float(name string) float64 {
	val := qp.String(name)
	if val == "" {
		qp.fail(name, errRequiredParam)
		return 0
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		qp.fail(name, errNotANumber)
		return 0
	}
	return f
}

func (qp *queryParams) Err() error {
	if len(qp.flds) == 0 {
		return nil
	}
	return core.NewValidationError(nil, qp.flds...)
}

// bindQueryFilter reads the records filters from the query string.
func bindQueryFilter(ctx echo.Context) (*result.QueryFilter, error) {
	qp := newQueryParams(ctx)
	filter := &result.QueryFilter{
		StudentID:  qp.String("student_id"),
		Semester:   qp.String("semester"),
		ExamType:   result.ExamType(qp.String("exam_type")),
		Course:     qp.String("course"),
		Department: qp.String("department"),
		Published:  qp.Bool("published"),
		Remedial:   qp.Bool("remedial"),
		OriginalID: qp.String("original_id"),
	}
	return filter, qp.Err()
}

// pathParam returns the unescaped path param, eg. "Sem 3" for "Sem%203".
func pathParam(ctx echo.Context, name string) string {
	val := ctx.Param(name)
	if unescaped, err := url.PathUnescape(val); err == nil {
		val = unescaped
	}
	return core.CleanString(val)
}
