package mail

import (
	"bytes"
	"errors"
	"mime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *captureDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestSendNewLead(t *testing.T) {
	d := &captureDialer{}
	s := NewEmailSender("smtp.local", 587, "u", "p", "leads@example.com")
	s.dialer = d

	err := s.SendNewLead("dono@example.com", NewLeadEmailData{
		OwnerName:        "Carla",
		FunnelTitle:      "Reforma <Express>",
		LeadName:         "João",
		Phone:            "11999990000",
		PreferredContact: "whatsapp",
	})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	m := d.sent[0]
	assert.Equal(t, []string{"dono@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"leads@example.com"}, m.GetHeader("From"))
	// assunto com emoji sai codificado em RFC 2047
	subject, err := new(mime.WordDecoder).DecodeHeader(m.GetHeader("Subject")[0])
	require.NoError(t, err)
	assert.Equal(t, "Novo lead em Reforma <Express> 🎯", subject)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Carla")
	assert.Contains(t, buf.String(), "11999990000")
}

func TestSendNewLead_DefaultSubjectWithoutFunnel(t *testing.T) {
	d := &captureDialer{}
	s := NewEmailSender("smtp.local", 587, "u", "p", "leads@example.com")
	s.dialer = d

	require.NoError(t, s.SendNewLead("dono@example.com", NewLeadEmailData{Phone: "11999990000"}))
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"Novo lead recebido"}, d.sent[0].GetHeader("Subject"))
}

func TestSendNewLead_Errors(t *testing.T) {
	s := NewEmailSender("smtp.local", 587, "", "", "")
	s.dialer = &captureDialer{err: errors.New("connection refused")}

	assert.Error(t, s.SendNewLead("", NewLeadEmailData{}))
	assert.ErrorContains(t, s.SendNewLead("x@example.com", NewLeadEmailData{Phone: "1"}), "connection refused")
}
