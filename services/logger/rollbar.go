package logsvc

import (
	"context"
	"fmt"
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/auth"
)

// RollbarLogger prints every entry to a std logger and reports it to Rollbar when reporting is enabled.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger configures the Rollbar client of the app.
// Reporting is disabled in debug mode or when no token is configured.
func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetCustom(map[string]interface{}{"app": conf.AppName, "database": conf.Database.Engine})
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(!conf.Debug && conf.RollbarToken != "")
	return &RollbarLogger{std: std}
}

// entry is a log call sorted out for Rollbar, which takes one error OR one message per item.
type entry struct {
	msg    string
	err    error
	claims *auth.Claims
	extras map[string]interface{}
}

// newEntry sorts args out: the first error is reported with a stack trace, claims identify
// the token bearer, maps are merged into the extras and anything else is kept as an extra.
func newEntry(msg string, args []interface{}) entry {
	e := entry{msg: msg, extras: make(map[string]interface{})}
	for i, arg := range args {
		switch val := arg.(type) {
		case auth.Claims:
			if e.claims == nil {
				e.claims = &val
			}
		case error:
			if e.err == nil {
				e.err = val
			} else {
				e.extras[fmt.Sprintf("error_%d", i)] = val.Error()
			}
		case map[string]interface{}:
			for k, v := range val {
				e.extras[k] = v
			}
		default:
			e.extras[fmt.Sprintf("arg_%d", i)] = fmt.Sprintf("%+v", val)
		}
	}
	return e
}

func (e entry) rollbarArgs() []interface{} {
	ctx := context.Background()
	if e.claims != nil {
		ctx = rollbar.NewPersonContext(ctx, &rollbar.Person{Id: e.claims.Subject, Username: e.claims.Role})
	}
	if e.err == nil {
		return []interface{}{ctx, e.msg, e.extras}
	}
	e.extras["message"] = e.msg
	return []interface{}{ctx, e.err, e.extras}
}

func (l RollbarLogger) log(level, label, msg string, args []interface{}) {
	e := newEntry(msg, args)
	rollbar.Log(level, e.rollbarArgs()...)

	l.std.Printf("%s: %s", label, msg)
	if e.err != nil {
		l.std.Printf("%+v", e.err)
	}
	if e.claims != nil {
		l.std.Printf("bearer: %s (%s)", e.claims.Subject, e.claims.Role)
	}
	for k, v := range e.extras {
		l.std.Printf("%s: %v", k, v)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, "DEBUG", msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, "INFO", msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, "WARN", msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, "ERROR", msg, args) }

// Fatal reports, waits for pending Rollbar items and exits.
func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, "FATAL", msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
