package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/collabus/transit-admin/internal/templates"
)

type capturedMail struct {
	to    string
	email templates.Email
}

type fakeSender struct {
	sent []capturedMail
}

func (f *fakeSender) Send(to string, email templates.Email) {
	f.sent = append(f.sent, capturedMail{to: to, email: email})
}

func TestDeliverMapsEventsToEmails(t *testing.T) {
	sender := &fakeSender{}
	log := zap.NewNop()

	deliver(LifecycleEvent{
		Kind: EventSignedUp, Name: "Fulano", Email: "fulano@collabus.com",
		ActivationURL: "https://app/activate?token=t",
	}, sender, log)
	deliver(LifecycleEvent{Kind: EventActivated, Name: "Fulano", Email: "fulano@collabus.com"}, sender, log)
	deliver(LifecycleEvent{Kind: EventDeleted, Name: "Fulano", Email: "fulano@collabus.com"}, sender, log)
	deliver(LifecycleEvent{
		Kind: EventResetRequested, Name: "Fulano", Email: "fulano@collabus.com",
		ResetURL: "https://app/reset-password?token=r",
	}, sender, log)

	if assert.Len(t, sender.sent, 4) {
		assert.Contains(t, sender.sent[0].email.Subject, "Ative sua conta")
		assert.Contains(t, sender.sent[0].email.Text, "https://app/activate?token=t")
		assert.Contains(t, sender.sent[1].email.Subject, "Conta ativada")
		assert.Contains(t, sender.sent[2].email.Subject, "partir")
		assert.Contains(t, sender.sent[3].email.Subject, "Redefinição de senha")
	}
}

func TestDeliverIgnoresUnknownKind(t *testing.T) {
	sender := &fakeSender{}

	deliver(LifecycleEvent{Kind: "user.teleported", Email: "x@collabus.com"}, sender, zap.NewNop())

	assert.Empty(t, sender.sent)
}
