package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templatesFS embed.FS

var newLeadTmpl = template.Must(template.ParseFS(templatesFS, "templates/new_lead.html"))

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	if from == "" {
		from = "nao-responda@funnelleads.app"
	}
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		dialer:   gomail.NewDialer(host, port, user, password),
	}
}

// SendNewLead avisa o dono do funil que chegou um lead novo.
func (s *EmailSender) SendNewLead(to string, data NewLeadEmailData) error {
	if to == "" {
		return fmt.Errorf("destinatário vazio")
	}

	var body bytes.Buffer
	if err := newLeadTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("erro ao processar template: %w", err)
	}

	subject := "Novo lead recebido"
	if data.FunnelTitle != "" {
		subject = fmt.Sprintf("Novo lead em %s 🎯", data.FunnelTitle)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}

	return nil
}
