package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core/auth"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
)

// meApi serves the student portal: students only ever see their own published results.
type meApi struct {
	svc result.Service
}

func registerMeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc result.Service) {
	api := meApi{svc: svc}

	mg := g.Group("/me", jwt, roleMiddleware(auth.RoleStudent))
	mg.GET("/results", api.results)
	mg.GET("/results/:semester", api.semesterResult)
	mg.GET("/results/:semester/marksheet", api.marksheet)
}

func (api *meApi) results(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	results, err := api.svc.StudentResults(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "getting student results")
	}
	return ctx.JSON(http.StatusOK, results)
}

func (api *meApi) getSemesterResult(ctx echo.Context) (result.AggregatedResult, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return result.AggregatedResult{}, errors.Wrap(err, "getting context claims")
	}

	res, err := api.svc.SemesterResult(ctx.Request().Context(), claims.Subject, pathParam(ctx, "semester"), true)
	return res, errors.Wrap(err, "computing semester result")
}

func (api *meApi) semesterResult(ctx echo.Context) error {
	res, err := api.getSemesterResult(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *meApi) marksheet(ctx echo.Context) error {
	res, err := api.getSemesterResult(ctx)
	if err != nil {
		return err
	}
	return sendMarksheet(ctx, res)
}
