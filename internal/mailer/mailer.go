// Package mailer delivers one-time login codes. The session core only
// depends on the Sender contract; SMTP is the production transport.
package mailer

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/semonara/semonara/internal/conf"
	log "github.com/sirupsen/logrus"
)

// Sender delivers a login code to an address.
type Sender interface {
	SendCode(to, code string) error
}

// New returns an SMTP sender when mail is configured, otherwise a
// log-only sender for development.
func New(cfg conf.Mail) Sender {
	if cfg.Host == "" {
		log.Warn("mail not configured, login codes will only be logged")
		return &logSender{}
	}
	return &smtpSender{cfg: cfg}
}

type smtpSender struct {
	cfg conf.Mail
}

func (s *smtpSender) SendCode(to, code string) error {
	headers := map[string]string{
		"From":         s.cfg.From,
		"To":           to,
		"Subject":      "Semonara login code",
		"MIME-Version": "1.0",
		"Content-Type": `text/html; charset=UTF-8`,
		"Date":         time.Now().Format(time.RFC1123Z),
	}
	var msg strings.Builder
	for k, v := range headers {
		fmt.Fprintf(&msg, "%s: %s\r\n", k, v)
	}
	msg.WriteString("\r\n")
	fmt.Fprintf(&msg, "<h2>Semonara login code</h2><p>Your code: <strong>%s</strong></p><p>Valid for 5 minutes. Ignore this mail if you did not request it.</p>", code)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	if err != nil {
		return errors.Wrap(err, "failed to connect to SMTP server")
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return errors.Wrap(err, "failed to create SMTP client")
	}
	defer client.Close()

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err = client.Auth(auth); err != nil {
		return errors.Wrap(err, "SMTP auth failed")
	}
	if err = client.Mail(s.cfg.From); err != nil {
		return errors.Wrap(err, "SMTP MAIL failed")
	}
	if err = client.Rcpt(to); err != nil {
		return errors.Wrap(err, "SMTP RCPT failed")
	}
	w, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "SMTP DATA failed")
	}
	if _, err = w.Write([]byte(msg.String())); err != nil {
		return errors.Wrap(err, "failed to write mail body")
	}
	if err = w.Close(); err != nil {
		return errors.Wrap(err, "failed to finish mail body")
	}
	log.Infof("login code sent to %s", to)
	return client.Quit()
}

type logSender struct{}

func (l *logSender) SendCode(to, code string) error {
	log.Infof("login code for %s: %s", to, code)
	return nil
}
