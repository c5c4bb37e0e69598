// Package template renders the HTML bodies of outbound mail.
package template

import (
	"html/template"
	"strings"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<html>
<body style="font-family: sans-serif;">
  <h2>Hello, {{.Username}}!</h2>
  <p>Thank you for registering. Please confirm your email address by following the link below.</p>
  <p><a href="{{.Link}}">Confirm email</a></p>
  <p>If you did not create this account, you can ignore this message.</p>
</body>
</html>`))

var passwordResetTmpl = template.Must(template.New("reset").Parse(`<html>
<body style="font-family: sans-serif;">
  <h2>Hello, {{.Username}}!</h2>
  <p>We received a request to reset your password. Use this token to set a new one:</p>
  <p><code>{{.Ticket}}</code></p>
  <p>The token expires in a few minutes. If you did not request a reset, you can ignore this message.</p>
</body>
</html>`))

func ConfirmationEmail(username, link string) (string, error) {
	var buf strings.Builder
	err := confirmationTmpl.Execute(&buf, struct {
		Username string
		Link     string
	}{username, link})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func PasswordResetEmail(username, ticket string) (string, error) {
	var buf strings.Builder
	err := passwordResetTmpl.Execute(&buf, struct {
		Username string
		Ticket   string
	}{username, ticket})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
