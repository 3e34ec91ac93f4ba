package result

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
)

func record(id string, et ExamType, variant Variant, subjects ...SubjectScore) Record {
	return Record{
		ID:        id,
		StudentID: "S",
		Semester:  "Sem 3",
		ExamType:  et,
		Subjects:  subjects,
		Variant:   variant,
	}
}

func subject(name string, marks, maxMarks float64) SubjectScore {
	return SubjectScore{Name: name, Marks: marks, MaxMarks: maxMarks}
}

func subjectNames(res AggregatedResult) []string {
	names := make([]string, 0, len(res.Subjects))
	for _, sr := range res.Subjects {
		names = append(names, string(sr.ExamType)+":"+sr.Name)
	}
	return names
}

func TestAggregateSemester(t *testing.T) {
	records := []Record{
		record("1", ExamInternal, Regular(), subject("DBMS", 28, 30)),
		record("2", ExamPractical, Regular(), subject("DBMS Lab", 18, 20)),
		record("3", ExamUniversity, Regular(), subject("DBMS", 55, 70)),
	}

	res, err := Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if res.TotalMarks != 101 || res.TotalMaxMarks != 120 {
		t.Errorf("totals = %v/%v, want 101/120", res.TotalMarks, res.TotalMaxMarks)
	}
	if got := core.Round2(res.Percentage); got != 84.17 {
		t.Errorf("Percentage = %v, want 84.17", got)
	}
	if res.Status != StatusPass {
		t.Errorf("Status = %v, want %v", res.Status, StatusPass)
	}
	// A+ (93.33%), A+ (90%), B+ (78.57%)
	if want := float64(10+10+8) / 3; res.SPI != want {
		t.Errorf("SPI = %v, want %v", res.SPI, want)
	}
	// same subject name under two exam types stays distinct
	assert.Equal(t, []string{"internal:DBMS", "practical:DBMS Lab", "university:DBMS"}, subjectNames(res))
	assert.Len(t, res.ByExamType(ExamUniversity), 1)
}

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name     string
		subjects []SubjectScore
		want     Status
	}{
		{name: "all passing", subjects: []SubjectScore{subject("A", 90, 100), subject("B", 33, 100)}, want: StatusPass},
		{name: "one failing", subjects: []SubjectScore{subject("A", 100, 100), subject("B", 32.99, 100)}, want: StatusFail},
		{name: "high overall one failing", subjects: []SubjectScore{
			subject("A", 100, 100), subject("B", 100, 100), subject("C", 100, 100), subject("D", 0, 100),
		}, want: StatusFail},
		{name: "all failing", subjects: []SubjectScore{subject("A", 1, 100)}, want: StatusFail},
		{name: "no subjects", want: StatusPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Aggregate([]Record{record("1", ExamUniversity, Regular(), tt.subjects...)})
			if err != nil {
				t.Fatalf("Aggregate() error = %v", err)
			}
			if res.Status != tt.want {
				t.Errorf("Status = %v, want %v", res.Status, tt.want)
			}

			// FAIL iff min(percentage) < 33
			minPass := true
			for _, sr := range res.Subjects {
				if sr.Percentage < PassPercentage {
					minPass = false
				}
			}
			if (res.Status == StatusPass) != minPass {
				t.Errorf("Status = %v while min percentage passing = %v", res.Status, minPass)
			}
		})
	}
}

func TestAggregateEmptySubjects(t *testing.T) {
	res, err := Aggregate([]Record{record("1", ExamInternal, Regular())})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if res.Percentage != 0 || res.SPI != 0 || res.TotalMaxMarks != 0 {
		t.Errorf("Aggregate() = %+v, want zero percentage & SPI", res)
	}
}

func TestAggregateErrors(t *testing.T) {
	if _, err := Aggregate(nil); err != ErrNotFound {
		t.Errorf("Aggregate(nil) error = %v, want %v", err, ErrNotFound)
	}

	other := record("2", ExamUniversity, Regular())
	other.StudentID = "T"
	otherSem := record("3", ExamUniversity, Regular())
	otherSem.Semester = "Sem 4"

	for _, recs := range [][]Record{
		{record("1", ExamInternal, Regular()), other},
		{record("1", ExamInternal, Regular()), otherSem},
	} {
		_, err := Aggregate(recs)
		vErr, ok := err.(*core.ValidationError)
		if !ok || vErr.Err != ErrMismatchedRecords {
			t.Errorf("Aggregate() error = %v, want %v", err, ErrMismatchedRecords)
		}
	}
}

func TestAggregateOrdering(t *testing.T) {
	// supplied out of order: remedial first, university before internal
	uni := record("u", ExamUniversity, Regular(), subject("Phy", 20, 100), subject("Math", 40, 100))
	records := []Record{
		record("r1", ExamUniversity, Remedial("u"), subject("Phy", 50, 100), subject("Chem", 70, 100)),
		uni,
		record("p", ExamPractical, Regular(), subject("Lab", 15, 20)),
		record("i", ExamInternal, Regular(), subject("Phy", 10, 30)),
		record("r2", ExamUniversity, Remedial("u"), subject("Phy", 60, 100)),
	}

	res, err := Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	assert.Equal(t,
		[]string{"internal:Phy", "practical:Lab", "university:Phy", "university:Math", "university:Chem"},
		subjectNames(res))

	// the later remedial wins, in place
	phy := res.Subjects[2]
	if phy.Marks != 60 || !phy.Remedial || !phy.IsPass {
		t.Errorf("university Phy = %+v, want the last remedial score", phy)
	}
	// remedial never touches the same subject of another exam type
	if res.Subjects[0].Marks != 10 || res.Subjects[0].Remedial {
		t.Errorf("internal Phy = %+v, want untouched", res.Subjects[0])
	}
	if res.Status != StatusPass {
		t.Errorf("Status = %v, want %v", res.Status, StatusPass)
	}
	// input left untouched
	if records[0].ID != "r1" || uni.Subjects[0].Marks != 20 {
		t.Error("Aggregate() mutated its input")
	}
}

func TestAggregateIdempotent(t *testing.T) {
	records := []Record{
		record("u", ExamUniversity, Regular(), subject("Phy", 20, 100), subject("Math", 40, 100)),
		record("r", ExamUniversity, Remedial("u"), subject("Phy", 60, 100)),
		record("i", ExamInternal, Regular(), subject("Phy", 17, 30)),
	}
	first, err := Aggregate(records)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Aggregate(records)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Aggregate() not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestAggregatedResultJSON(t *testing.T) {
	res, err := Aggregate([]Record{
		record("1", ExamInternal, Regular(), subject("DBMS", 28, 30)),
		record("2", ExamPractical, Regular(), subject("DBMS Lab", 18, 20)),
		record("3", ExamUniversity, Regular(), subject("DBMS", 55, 70)),
	})
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}

	var got struct {
		Percentage float64 `json:"percentage"`
		SPI        float64 `json:"spi"`
		Status     string  `json:"status"`
		Subjects   []struct {
			Percentage float64 `json:"percentage"`
			Grade      string  `json:"grade"`
		} `json:"subjects"`
	}
	if err = json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Percentage != 84.17 || got.SPI != 9.33 || got.Status != "PASS" {
		t.Errorf("json = %s", data)
	}
	if len(got.Subjects) != 3 || got.Subjects[0].Percentage != 93.33 || got.Subjects[0].Grade != "A+" {
		t.Errorf("json subjects = %s", data)
	}
	// the Go value stays unrounded
	if res.Percentage == 84.17 {
		t.Errorf("Percentage = %v, want unrounded", res.Percentage)
	}
}

func TestAggregateRemedialChain(t *testing.T) {
	// each remedial record carries the corrections of the ones before it
	records := []Record{
		record("1", ExamUniversity, Regular(), subject("Phy", 20, 100), subject("Chem", 20, 100)),
		record("2", ExamUniversity, Remedial("1"), subject("Phy", 60, 100), subject("Chem", 20, 100)),
		record("3", ExamUniversity, Remedial("1"), subject("Phy", 60, 100), subject("Chem", 60, 100)),
	}

	res, err := Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	assert.Equal(t, []string{"university:Phy", "university:Chem"}, subjectNames(res))
	if res.TotalMarks != 120 || res.Status != StatusPass {
		t.Errorf("Aggregate() = %+v, want 120 marks & PASS", res)
	}
	for _, sr := range res.Subjects {
		if !sr.Remedial {
			t.Errorf("%s: Remedial = false, want true", sr.Name)
		}
	}
}
