package client

import (
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/contacthub/backend/internal/config"
	"github.com/contacthub/backend/internal/template"
	"go.uber.org/zap"
)

const (
	mailWorkers   = 2
	mailQueueSize = 64
)

type mailKind int

const (
	mailConfirmation mailKind = iota
	mailPasswordReset
)

type mailJob struct {
	kind     mailKind
	email    string
	username string
	ticket   string
}

type emailTokenIssuer interface {
	IssueEmailToken(email string) (string, error)
}

// SMTPMailer delivers confirmation and password-reset mails. Sends are
// fire-and-forget: callers enqueue and move on, workers drain the queue and
// log failures. A full queue drops the job rather than blocking a request.
type SMTPMailer struct {
	cfg     config.MailConfig
	baseURL string
	tokens  emailTokenIssuer
	queue   chan mailJob
	done    chan struct{}
	logger  *zap.Logger
}

func NewSMTPMailer(cfg config.MailConfig, baseURL string, tokens emailTokenIssuer, logger *zap.Logger) *SMTPMailer {
	m := &SMTPMailer{
		cfg:     cfg,
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		queue:   make(chan mailJob, mailQueueSize),
		done:    make(chan struct{}),
		logger:  logger,
	}
	for i := 0; i < mailWorkers; i++ {
		go m.worker()
	}
	return m
}

func (m *SMTPMailer) IsConfigured() bool {
	return m.cfg.Server != "" && m.cfg.From != ""
}

func (m *SMTPMailer) SendConfirmation(email, username string) {
	m.enqueue(mailJob{kind: mailConfirmation, email: email, username: username})
}

func (m *SMTPMailer) SendPasswordReset(email, username, ticket string) {
	m.enqueue(mailJob{kind: mailPasswordReset, email: email, username: username, ticket: ticket})
}

// Close stops accepting jobs and waits for the workers to drain the queue.
func (m *SMTPMailer) Close() {
	close(m.queue)
	for i := 0; i < mailWorkers; i++ {
		<-m.done
	}
}

func (m *SMTPMailer) enqueue(job mailJob) {
	select {
	case m.queue <- job:
	default:
		m.logger.Warn("mail queue full, dropping message",
			zap.String("email", job.email))
	}
}

func (m *SMTPMailer) worker() {
	defer func() { m.done <- struct{}{} }()
	for job := range m.queue {
		if err := m.deliver(job); err != nil {
			m.logger.Error("failed to send mail",
				zap.String("email", job.email),
				zap.Error(err))
		}
	}
}

func (m *SMTPMailer) deliver(job mailJob) error {
	if !m.IsConfigured() {
		return fmt.Errorf("mail server or sender address not configured")
	}

	var subject, body string
	switch job.kind {
	case mailConfirmation:
		token, err := m.tokens.IssueEmailToken(job.email)
		if err != nil {
			return fmt.Errorf("failed to issue confirmation token: %w", err)
		}
		link := m.baseURL + "/api/auth/confirmed_email/" + token
		subject = "Confirm your email"
		body, err = template.ConfirmationEmail(job.username, link)
		if err != nil {
			return err
		}
	case mailPasswordReset:
		var err error
		subject = "Reset your password"
		body, err = template.PasswordResetEmail(job.username, job.ticket)
		if err != nil {
			return err
		}
	}

	return m.send(job.email, subject, body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	addr := net.JoinHostPort(m.cfg.Server, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Server)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg.String()))
}
