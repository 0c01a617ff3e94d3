// Package mail validates contact form submissions and hands them to a
// mail delivery service.
package mail

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
)

var (
	ErrMissingFields = errors.New("mail: missing fields")
	ErrNotConfigured = errors.New("mail: service or template id not configured")
	ErrThrottled     = errors.New("mail: too many messages")
)

// User-facing notices.
const (
	MsgMissingFields = "Please fill all fields!"
	MsgNotConfigured = "EmailJS service ID and template ID not found!"
	MsgSent          = "Message sent successfully!"
	MsgFailed        = "Couldn't send message"
	MsgThrottled     = "Please wait a few seconds before sending another message."
)

// Form is the contact form as typed by the visitor.
type Form struct {
	Name    string `form:"name" json:"name" validate:"required"`
	Email   string `form:"email" json:"email" validate:"required"`
	Message string `form:"message" json:"message" validate:"required"`
}

func (f Form) trimmed() Form {
	return Form{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Message: strings.TrimSpace(f.Message),
	}
}

// Params is the template payload, keyed the way the mail template expects.
type Params struct {
	FromName string `json:"from_name"`
	ReplyTo  string `json:"reply_to"`
	Message  string `json:"message"`
}

// Sender delivers one message. Configured reports whether the sender has
// what it needs to deliver with the given ids; Submit refuses to send
// otherwise.
type Sender interface {
	Configured(serviceID, templateID string) bool
	Send(ctx context.Context, serviceID, templateID string, p Params) error
}

// Notice is the toast shown after a submission.
type Notice struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

func errorNotice(title, text string) Notice { return Notice{Kind: "error", Title: title, Text: text} }

// Result is the outcome of a submission. Form holds what the inputs should
// show afterwards.
type Result struct {
	Notice Notice `json:"notice"`
	Form   Form   `json:"form"`
	Err    error  `json:"-"`
}

func (r Result) Sent() bool { return r.Err == nil }

// Dispatcher validates and sends contact messages.
type Dispatcher struct {
	ServiceID  string
	TemplateID string

	sender   Sender
	throttle *Throttle
	validate *validator.Validate
	logger   *log.Logger
}

func NewDispatcher(serviceID, templateID string, s Sender, t *Throttle, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		ServiceID:  serviceID,
		TemplateID: templateID,
		sender:     s,
		throttle:   t,
		validate:   validator.New(),
		logger:     logger,
	}
}

// Submit runs one submission for the client identified by key. Rejected
// submissions keep the visitor's input; once a send has been attempted the
// form is cleared whatever the outcome.
func (d *Dispatcher) Submit(ctx context.Context, key string, in Form) Result {
	f := in.trimmed()
	if err := d.validate.Struct(f); err != nil {
		return Result{Notice: errorNotice("Error!", MsgMissingFields), Form: in, Err: ErrMissingFields}
	}
	if !d.Configured() {
		return Result{Notice: errorNotice("Error!", MsgNotConfigured), Form: in, Err: ErrNotConfigured}
	}
	if d.throttle != nil && !d.throttle.Allow(key) {
		return Result{Notice: errorNotice("Slow down!", MsgThrottled), Form: in, Err: ErrThrottled}
	}

	err := d.send(ctx, Params{FromName: f.Name, ReplyTo: f.Email, Message: f.Message})
	if err != nil {
		d.logger.Error("sending contact message failed", "err", err)
		return Result{Notice: errorNotice("Oops!", MsgFailed), Err: err}
	}
	d.logger.Info("contact message sent", "from", f.Name)
	return Result{Notice: Notice{Kind: "success", Title: "Hurray!", Text: MsgSent}}
}

// Configured reports whether submissions can be sent at all.
func (d *Dispatcher) Configured() bool {
	return d.sender != nil && d.sender.Configured(d.ServiceID, d.TemplateID)
}

func (d *Dispatcher) send(ctx context.Context, p Params) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("mail sender panicked")
		}
	}()
	return d.sender.Send(ctx, d.ServiceID, d.TemplateID, p)
}
