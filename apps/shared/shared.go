// Package shared sets up the dependencies common to the apps.
package shared

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
	emailsvc "github.com/PatelMeet-1/Student-Management-system-sub000/services/email"
	"github.com/PatelMeet-1/Student-Management-system-sub000/storage/database"
	dummydb "github.com/PatelMeet-1/Student-Management-system-sub000/storage/database/dummy"
	mongorepos "github.com/PatelMeet-1/Student-Management-system-sub000/storage/database/mongo"
	sqlxrepos "github.com/PatelMeet-1/Student-Management-system-sub000/storage/database/sqlx"
)

var ErrNotSQL = errors.New("the configured database engine is not SQL")

// Storage is an open record store.
type Storage struct {
	Records result.Repository
	SQL     *sqlx.DB // postgres only
	close   func() error
}

func (st *Storage) Close() error {
	if st.close == nil {
		return nil
	}
	return st.close()
}

// OpenStorage opens the record store of the configured database engine.
// Postgres databases are created when missing, but not migrated.
func OpenStorage(ctx context.Context, conf *core.Config) (*Storage, error) {
	switch conf.Database.Engine {
	case core.EngineMemory:
		db, err := dummydb.Open()
		if err != nil {
			return nil, errors.Wrap(err, "opening memory database")
		}
		return &Storage{Records: dummydb.NewRecordRepository(db)}, nil

	case core.EnginePostgres:
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		return &Storage{Records: sqlxrepos.NewRecordRepository(db), SQL: db, close: db.Close}, nil

	case core.EngineMongo:
		db, err := mongorepos.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err = mongorepos.EnsureIndexes(ctx, db); err != nil {
			_ = db.Client().Disconnect(ctx)
			return nil, err
		}
		closeFn := func() error { return db.Client().Disconnect(context.Background()) }
		return &Storage{Records: mongorepos.NewRecordRepository(db), close: closeFn}, nil

	default:
		return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

// Migrate runs a goose command against the SQL database, if any.
func (st *Storage) Migrate(command string, args ...string) error {
	if st.SQL == nil {
		return ErrNotSQL
	}
	return database.Migrate(st.SQL.DB, command, args...)
}

// NewValidator returns a validator with all the app validations registered, along with its translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	result.InitValidators(validate, translator)
	return validate, translator
}

// NewEmailService prints emails in debug mode, and sends them through Sendgrid otherwise.
func NewEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// NewResultService wires the result service onto the storage.
func NewResultService(st *Storage, mailSvc core.EmailService) (result.Service, ut.Translator) {
	validate, translator := NewValidator()
	return result.NewService(st.Records, mailSvc, validate, translator), translator
}

// WaitEmails blocks until the emails sent through mailSvc are handled, when it supports waiting.
func WaitEmails(mailSvc core.EmailService) {
	if w, ok := mailSvc.(interface{ Wait() }); ok {
		w.Wait()
	}
}
