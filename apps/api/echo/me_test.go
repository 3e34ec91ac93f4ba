package echoapi_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core/auth"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
	testutil "github.com/PatelMeet-1/Student-Management-system-sub000/tests"
)

func Test_meApi(t *testing.T) {
	ta := setup(t)
	day := 24 * time.Hour
	sub := testutil.Subject

	sem3 := testutil.CreateRecord(t, ta.repo, "S1", "Sem 3", result.ExamInternal, true, []result.SubjectScore{sub("DBMS", 28, 30)}, start)
	testutil.CreateRecord(t, ta.repo, "S1", "Sem 3", result.ExamUniversity, false, []result.SubjectScore{sub("DBMS", 10, 70)}, start.Add(day))
	sem4 := testutil.CreateRecord(t, ta.repo, "S1", "Sem 4", result.ExamInternal, true, []result.SubjectScore{sub("OS", 9, 30)}, start.Add(2*day))
	testutil.CreateRecord(t, ta.repo, "S2", "Sem 3", result.ExamInternal, true, []result.SubjectScore{sub("DBMS", 30, 30)}, start)

	// the remedial of a published record stays hidden until published
	testutil.CreateRemedialRecord(t, ta.repo, sem4, false, []result.SubjectScore{sub("OS", 20, 30)}, start.Add(3*day))

	student := ta.token(t, "S1", auth.RoleStudent)
	newcomer := ta.token(t, "S3", auth.RoleStudent)
	notFound := marchallObj(t, httpErr{Error: result.ErrNotFound.Error()})

	runHttpTests(t, ta, []httpTest{
		{name: "Auth required", path: "/v1/me/results", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "All semesters", path: "/v1/me/results", token: student, wantCode: http.StatusOK,
			wantData: marchallList(t, aggregateOf(t, sem3), aggregateOf(t, sem4)),
		},
		{name: "No results yet", path: "/v1/me/results", token: newcomer, wantCode: http.StatusOK, wantData: marchallList(t)},
		{name: "Semester", path: "/v1/me/results/Sem%203", token: student, wantCode: http.StatusOK, wantData: marchallObj(t, aggregateOf(t, sem3))},
		{name: "Unknown semester", path: "/v1/me/results/Sem%205", token: student, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "Other students", path: "/v1/me/results/Sem%203", token: newcomer, wantCode: http.StatusNotFound, wantData: notFound},
	})

	t.Run("Failing semester", func(t *testing.T) {
		rec := ta.do(newAuthRequest(http.MethodGet, "/v1/me/results/Sem%204", student))
		var got struct {
			Status string `json:"status"`
		}
		unmarchall(t, rec, &got)
		assert.Equal(t, string(result.StatusFail), got.Status)
	})

	t.Run("Marksheet", func(t *testing.T) {
		rec := ta.do(newAuthRequest(http.MethodGet, "/v1/me/results/Sem%203/marksheet", student))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, xlsxMIME, rec.Header().Get("Content-Type"))

		rec = ta.do(newAuthRequest(http.MethodGet, "/v1/me/results/Sem%205/marksheet", student))
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: notFound}, rec)
	})
}
