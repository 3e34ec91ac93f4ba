package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/auth"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
	"github.com/PatelMeet-1/Student-Management-system-sub000/services/spreadsheet"
)

const (
	xlsxMIME      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	importFileKey = "file"
)

type (
	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}

	DestroyResponse struct {
		Deleted int `json:"deleted"`
	}

	GradeResponse struct {
		Marks      float64      `json:"marks"`
		MaxMarks   float64      `json:"max_marks"`
		Percentage float64      `json:"percentage"`
		Grade      result.Grade `json:"grade"`
		GradePoint int          `json:"grade_point"`
		IsPass     bool         `json:"is_pass"`
	}
)

type resultApi struct {
	svc result.Service
}

func registerResultAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc result.Service) {
	api := resultApi{svc: svc}

	staff := roleMiddleware(auth.RoleAdmin, auth.RoleFaculty)
	admin := roleMiddleware(auth.RoleAdmin)

	g.GET("/grade", api.grade, jwt)

	rg := g.Group("/results", jwt, staff)
	rg.POST("", api.upload)
	rg.GET("", api.query)
	rg.DELETE("", api.destroyMultiple, admin)
	rg.POST("/import", api.importMarks)
	rg.GET("/export", api.export)
	rg.POST("/remedial", api.submitRemedial)
	rg.GET("/aggregate", api.aggregate)
	rg.GET("/marksheet", api.marksheet)

	// detail endpoints
	dg := rg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, admin)
	dg.POST("/publish", api.publish, admin)
	dg.POST("/unpublish", api.unpublish, admin)
}

// Handlers

func (api *resultApi) grade(ctx echo.Context) error {
	qp := newQueryParams(ctx)
	marks := qp.Float("marks")
	maxMarks := qp.Float("max_marks")
	if err := qp.Err(); err != nil {
		return err
	}
	if err := result.ValidateScore(marks, maxMarks); err != nil {
		return err
	}

	pct, grade := result.GradeSubject(marks, maxMarks)
	return ctx.JSON(http.StatusOK, GradeResponse{
		Marks:      marks,
		MaxMarks:   maxMarks,
		Percentage: core.Round2(pct),
		Grade:      grade,
		GradePoint: result.GradePoint(grade),
		IsPass:     result.IsPass(pct),
	})
}

func (api *resultApi) upload(ctx echo.Context) error {
	var data result.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}

	rec, created, err := api.svc.Upload(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "uploading record")
	}
	if created {
		return ctx.JSON(http.StatusCreated, rec)
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *resultApi) importMarks(ctx echo.Context) error {
	publish := false
	if val := core.CleanString(ctx.FormValue("publish")); val != "" {
		publish = val == "1" || strings.EqualFold(val, "true")
	}
	if publish {
		// only admins publish
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if !claims.IsAdmin() {
			return errHttpForbidden
		}
	}

	fh, err := ctx.FormFile(importFileKey)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: importFileKey, Error: errRequiredParam})
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()

	nrs, err := spreadsheet.ParseMarks(f)
	if err != nil {
		return errors.Wrap(err, "parsing marks")
	}
	report, err := api.svc.Import(ctx.Request().Context(), nrs, publish)
	if err != nil {
		return errors.Wrap(err, "importing records")
	}
	if report.Failed == nil {
		report.Failed = []result.ImportFailure{}
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *resultApi) query(ctx echo.Context) error {
	filter, err := bindQueryFilter(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	records, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying records")
	}
	if records == nil {
		records = []result.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *resultApi) export(ctx echo.Context) error {
	filter, err := bindQueryFilter(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	records, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying records")
	}

	var buf bytes.Buffer
	if err := spreadsheet.WriteMarks(&buf, records); err != nil {
		return errors.Wrap(err, "writing marks")
	}
	return sendXLSX(ctx, "marks.xlsx", buf.Bytes())
}

func (api *resultApi) submitRemedial(ctx echo.Context) error {
	var data result.RemedialSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RemedialSubmission")
	}

	res, err := api.svc.SubmitRemedial(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting remedial")
	}
	return ctx.JSON(http.StatusCreated, res)
}

// semesterResult aggregates the records named by the student_id & semester query params,
// drafts included unless published=true.
func (api *resultApi) semesterResult(ctx echo.Context) (result.AggregatedResult, error) {
	qp := newQueryParams(ctx)
	studentID := qp.Required("student_id")
	semester := qp.Required("semester")
	published := qp.Bool("published")
	if err := qp.Err(); err != nil {
		return result.AggregatedResult{}, err
	}

	publishedOnly := published != nil && *published
	res, err := api.svc.SemesterResult(ctx.Request().Context(), studentID, semester, publishedOnly)
	return res, errors.Wrap(err, "computing semester result")
}

func (api *resultApi) aggregate(ctx echo.Context) error {
	res, err := api.semesterResult(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *resultApi) marksheet(ctx echo.Context) error {
	res, err := api.semesterResult(ctx)
	if err != nil {
		return err
	}
	return sendMarksheet(ctx, res)
}

func (api *resultApi) retrieve(ctx echo.Context) error {
	rec, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *resultApi) update(ctx echo.Context) error {
	var data result.UpdateRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRecord")
	}

	rec, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *resultApi) setPublished(ctx echo.Context, published bool) error {
	rec, err := api.svc.SetPublished(ctx.Request().Context(), ctx.Param("id"), published)
	if err != nil {
		return errors.Wrap(err, "setting published")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *resultApi) publish(ctx echo.Context) error {
	return api.setPublished(ctx, true)
}

func (api *resultApi) unpublish(ctx echo.Context) error {
	return api.setPublished(ctx, false)
}

func (api *resultApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	if _, err := api.svc.Get(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "getting record")
	}
	if _, err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting record")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *resultApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if len(query.IDs) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}

	n, err := api.svc.Delete(ctx.Request().Context(), query.IDs...)
	if err != nil {
		return errors.Wrap(err, "deleting records")
	}
	return ctx.JSON(http.StatusOK, DestroyResponse{Deleted: n})
}

func sendXLSX(ctx echo.Context, filename string, data []byte) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, xlsxMIME, data)
}

func sendMarksheet(ctx echo.Context, res result.AggregatedResult) error {
	var buf bytes.Buffer
	if err := spreadsheet.WriteMarksheet(&buf, res); err != nil {
		return errors.Wrap(err, "writing marksheet")
	}
	filename := strings.ReplaceAll(fmt.Sprintf("%s_%s_marksheet.xlsx", res.StudentID, res.Semester), " ", "_")
	return sendXLSX(ctx, filename, buf.Bytes())
}
