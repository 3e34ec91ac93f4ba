package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"

	// every notice is filed under this category in the SendGrid activity feed,
	// along with its template name
	resultsCategory = "results"
)

// sendgridService delivers the result notices through the SendGrid v3 API.
type sendgridService struct {
	apiKey  string
	host    string
	sender  *sgmail.Email
	prefix  string
	logger  core.Logger
	pending *sync.WaitGroup
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	return newSendgridService(conf, logger, sendgridHost)
}

func newSendgridService(conf *core.Config, logger core.Logger, host string) *sendgridService {
	return &sendgridService{
		apiKey:  conf.SendgridApiKey,
		host:    host,
		sender:  sgmail.NewEmail(conf.DefaultFromEmail.Name, conf.DefaultFromEmail.Address),
		prefix:  "[" + conf.AppName + "] ",
		logger:  logger,
		pending: new(sync.WaitGroup),
	}
}

// SendMessages delivers each message in its own goroutine. Failures are logged.
func (svc *sendgridService) SendMessages(messages ...*core.EmailMessage) {
	svc.pending.Add(len(messages))
	for _, msg := range messages {
		go func(msg *core.EmailMessage) {
			defer svc.pending.Done()
			if err := svc.deliver(msg); err != nil {
				svc.logger.Error(fmt.Sprintf("emailing %s", joinRecipients(msg.To)), err)
			}
		}(msg)
	}
}

// Wait blocks until the messages sent so far are delivered or have failed.
func (svc *sendgridService) Wait() { svc.pending.Wait() }

// deliver renders msg and posts it. Messages without recipients or content are dropped.
func (svc *sendgridService) deliver(msg *core.EmailMessage) error {
	if err := msg.Render(); err != nil {
		return errors.Wrap(err, "rendering email")
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return nil
	}

	req := sendgrid.GetRequest(svc.apiKey, sendgridEndpoint, svc.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.newMail(*msg))

	// retries once SendGrid's rate limit resets
	res, err := sendgrid.MakeRequestRetry(req)
	if err != nil {
		return errors.Wrap(err, "posting to sendgrid")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// newMail builds the v3 payload: a single personalization, plain text before HTML.
func (svc *sendgridService) newMail(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.prefix + msg.Subject
	p.AddTos(sgEmails(msg.To)...)
	if len(msg.Cc) > 0 {
		p.AddCCs(sgEmails(msg.Cc)...)
	}
	if len(msg.Bcc) > 0 {
		p.AddBCCs(sgEmails(msg.Bcc)...)
	}

	m := sgmail.NewV3Mail().
		SetFrom(svc.sender).
		AddPersonalizations(p).
		AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}

	categories := []string{resultsCategory}
	if msg.TemplateName != "" {
		categories = append(categories, msg.TemplateName)
	}
	return m.AddCategories(categories...)
}

func sgEmails(addrs []mail.Address) []*sgmail.Email {
	emails := make([]*sgmail.Email, 0, len(addrs))
	for _, addr := range addrs {
		emails = append(emails, sgmail.NewEmail(addr.Name, addr.Address))
	}
	return emails
}

func joinRecipients(addrs []mail.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		parts = append(parts, addr.Address)
	}
	return strings.Join(parts, ", ")
}
