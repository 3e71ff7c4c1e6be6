// Package templates renders the transactional email bodies and the
// activation result pages. The copy mirrors the Collabus Transportes
// messages shown to end users, so everything user-visible is in
// Portuguese.
package templates

import (
	"bytes"
	"html/template"
	texttemplate "text/template"
)

// Email is a rendered message ready for the mailer.
type Email struct {
	Subject string
	Text    string
	HTML    string
}

const emailShellHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="text-align: center; margin-bottom: 30px;">
    <h1 style="color: #008080; margin: 0;">Collabus Transportes</h1>
  </div>
  <h2 style="color: #008080; border-bottom: 2px solid #008080; padding-bottom: 10px;">{{.Title}}</h2>
  <p style="font-size: 16px; line-height: 1.6;">Olá <strong>{{.Name}}</strong>!</p>
  {{.Body}}
  <p style="font-size: 14px; color: #666; margin-top: 30px;">Equipe Collabus Transportes</p>
</div>`

var emailShell = template.Must(template.New("shell").Parse(emailShellHTML))

type shellData struct {
	Title string
	Name  string
	Body  template.HTML
}

func renderShell(title, name string, body template.HTML) string {
	var buf bytes.Buffer
	_ = emailShell.Execute(&buf, shellData{Title: title, Name: name, Body: body})
	return buf.String()
}

var activationText = texttemplate.Must(texttemplate.New("activation").Parse(
	`Olá {{.Name}}!

Sua conta foi criada com sucesso no Collabus Transportes.

Para ativar sua conta, acesse o link:
{{.ActivationURL}}

Obrigado!`))

var activationBody = template.Must(template.New("activationBody").Parse(
	`<p style="font-size: 16px; line-height: 1.6;">Sua conta foi criada com sucesso. Para começar a usar o Collabus Transportes, ative sua conta:</p>
<p style="text-align: center; margin: 30px 0;">
  <a href="{{.ActivationURL}}" style="background-color: #008080; color: #fff; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Ativar minha conta</a>
</p>
<p style="font-size: 13px; color: #666;">Se o botão não funcionar, copie o link: {{.ActivationURL}}</p>`))

// ActivationEmail renders the account activation message with the
// one-time link.
func ActivationEmail(name, activationURL string) Email {
	data := struct{ Name, ActivationURL string }{name, activationURL}
	var text, body bytes.Buffer
	_ = activationText.Execute(&text, data)
	_ = activationBody.Execute(&body, data)
	return Email{
		Subject: "Ative sua conta - Collabus Transportes",
		Text:    text.String(),
		HTML:    renderShell("Bem-vindo ao Collabus Transportes!", name, template.HTML(body.String())),
	}
}

// WelcomeEmail renders the message sent right after activation.
func WelcomeEmail(name string) Email {
	text := "Olá " + name + `!

Sua conta foi ativada com sucesso. Agora você já pode acessar o Collabus Transportes.

Boas viagens!`
	body := template.HTML(`<p style="font-size: 16px; line-height: 1.6;">Sua conta foi ativada com sucesso. Agora você já pode acessar o sistema e acompanhar rotas, horários e veículos.</p>`)
	return Email{
		Subject: "Conta ativada - Collabus Transportes",
		Text:    text,
		HTML:    renderShell("Conta ativada!", name, body),
	}
}

// GoodbyeEmail renders the farewell message sent before an account is
// deleted, while the recipient address still resolves.
func GoodbyeEmail(name string) Email {
	text := "Olá " + name + `,

Estamos tristes por ver você partir 😢

Sua conta no Collabus Transportes foi excluída com sucesso conforme solicitado.

Todos os seus dados foram removidos do nosso sistema.

Esperamos que você volte em breve!

Até logo!`
	body := template.HTML(`<p style="font-size: 16px; line-height: 1.6;">Sua conta foi excluída com sucesso conforme solicitado. Todos os seus dados foram removidos do nosso sistema.</p>
<p style="font-size: 16px; line-height: 1.6;">Esperamos que você volte em breve!</p>`)
	return Email{
		Subject: "Estamos tristes por ver você partir 😢 - Collabus Transportes",
		Text:    text,
		HTML:    renderShell("Até logo!", name, body),
	}
}

// PasswordResetEmail renders the password reset message with the
// one-time link.
func PasswordResetEmail(name, resetURL string) Email {
	data := struct{ Name, ResetURL string }{name, resetURL}
	var body bytes.Buffer
	_ = template.Must(template.New("resetBody").Parse(
		`<p style="font-size: 16px; line-height: 1.6;">Recebemos um pedido para redefinir sua senha. O link abaixo vale por 1 hora:</p>
<p style="text-align: center; margin: 30px 0;">
  <a href="{{.ResetURL}}" style="background-color: #008080; color: #fff; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Redefinir senha</a>
</p>
<p style="font-size: 13px; color: #666;">Se você não pediu a redefinição, ignore este email.</p>`)).Execute(&body, data)
	return Email{
		Subject: "Redefinição de senha - Collabus Transportes",
		Text: "Olá " + name + `!

Recebemos um pedido para redefinir sua senha. Acesse o link (válido por 1 hora):
` + resetURL + `

Se você não pediu a redefinição, ignore este email.`,
		HTML: renderShell("Redefinição de senha", name, template.HTML(body.String())),
	}
}
