// AngelaMos | 2026
// templates.go

package email

import (
	"fmt"
	"html"
)

func VerificationMessage(to, name, link string) Message {
	safeName := html.EscapeString(name)

	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Confirm your email address to activate your account:</p>
		<p><a href="%s">Verify my email</a></p>
		<p>If you did not create this account, you can ignore this message.</p>`,
		safeName, link)

	return Message{
		To:      to,
		Subject: "Verify your email address",
		HTML:    body,
	}
}
