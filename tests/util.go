package testutil

import (
	"context"
	"io"
	"log"
	"net/mail"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
	logsvc "github.com/PatelMeet-1/Student-Management-system-sub000/services/logger"
)

// Config returns the app config used by tests.
func Config() *core.Config {
	return &core.Config{
		Env:              "TEST",
		Debug:            true,
		TestMode:         true,
		AppName:          "Results",
		Build:            "test",
		SecretKey:        "test-secret-key",
		FrontendBaseURL:  "http://results.test",
		DefaultFromEmail: mail.Address{Name: "Results", Address: "noreply@results.test"},
		Server: core.ServerConfig{
			Host:                      "localhost:8000",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
		},
		Database: core.DatabaseConfig{Engine: core.EngineMemory},
	}
}

// Logger returns a logger writing nowhere, with Rollbar disabled.
func Logger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

// Subject is a shorthand for a result.SubjectScore.
func Subject(name string, marks, maxMarks float64) result.SubjectScore {
	return result.SubjectScore{Name: name, Marks: marks, MaxMarks: maxMarks}
}

// CreateRecord stores a regular record straight into the repository, bypassing validation.
func CreateRecord(
	t *testing.T,
	repo result.Repository,
	studentID, semester string,
	examType result.ExamType,
	published bool,
	subjects []result.SubjectScore,
	createdAt ...time.Time,
) result.Record {
	return createRecord(t, repo, result.Record{
		StudentID: studentID,
		Semester:  semester,
		ExamType:  examType,
		Subjects:  subjects,
		Published: published,
		Variant:   result.Regular(),
	}, createdAt...)
}

// CreateRemedialRecord stores a remedial record chained to orig.
func CreateRemedialRecord(
	t *testing.T,
	repo result.Repository,
	orig result.Record,
	published bool,
	subjects []result.SubjectScore,
	createdAt ...time.Time,
) result.Record {
	return createRecord(t, repo, result.Record{
		StudentID: orig.StudentID,
		Semester:  orig.Semester,
		ExamType:  orig.ExamType,
		Subjects:  subjects,
		Published: published,
		Variant:   result.Remedial(orig.ID),
	}, createdAt...)
}

func createRecord(t *testing.T, repo result.Repository, rec result.Record, createdAt ...time.Time) result.Record {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	rec.ID = uuid.NewString()
	rec.StudentName = "Student " + rec.StudentID
	rec.Course = "BCA"
	rec.Department = "Computer Science"
	rec.CreatedAt = tstamp
	rec.UpdatedAt = tstamp

	rec, err := repo.CreateRecord(context.Background(), rec)
	if err != nil {
		t.Fatalf("createRecord() failed: %v", err)
	}
	return rec
}
