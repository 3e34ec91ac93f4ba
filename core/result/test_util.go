package result

import (
	"github.com/go-playground/validator/v10"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
)

// NewTestService returns a Service with all validations registered, for tests.
func NewTestService(repo Repository, mailSvc core.EmailService) Service {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return NewService(repo, mailSvc, validate, translator)
}
