package templates

import (
	"bytes"
	"html/template"
)

// The activation endpoint is opened from an email client, so it answers
// with a small styled page instead of JSON.
const activationPageHTML = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}} - Collabus Transportes</title>
  <style>
    body { font-family: Arial, sans-serif; background: #f4f6f8; margin: 0; padding: 40px 16px; }
    .card { max-width: 520px; margin: 0 auto; background: #fff; border-radius: 8px; padding: 32px; text-align: center; box-shadow: 0 2px 8px rgba(0,0,0,.08); }
    h1 { color: #008080; font-size: 22px; margin: 0 0 8px; }
    h2 { color: {{if .Success}}#008080{{else}}#c0392b{{end}}; font-size: 19px; }
    p { color: #444; line-height: 1.6; }
  </style>
</head>
<body>
  <div class="card">
    <h1>Collabus Transportes</h1>
    <h2>{{.Title}}</h2>
    <p>{{.Message}}</p>
  </div>
</body>
</html>`

var activationPage = template.Must(template.New("activationPage").Parse(activationPageHTML))

type pageData struct {
	Success bool
	Title   string
	Message string
}

// ActivationSuccessPage is shown when the account was activated.
func ActivationSuccessPage() string {
	return renderPage(pageData{
		Success: true,
		Title:   "Conta ativada com sucesso!",
		Message: "Sua conta está pronta. Você já pode fechar esta página e entrar no aplicativo.",
	})
}

// ActivationErrorPage is shown for missing, invalid or already used
// tokens.
func ActivationErrorPage(message string) string {
	return renderPage(pageData{Success: false, Title: "Não foi possível ativar", Message: message})
}

func renderPage(d pageData) string {
	var buf bytes.Buffer
	_ = activationPage.Execute(&buf, d)
	return buf.String()
}
