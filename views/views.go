// Package views renders the HTML pages of the password-reset flow.
package views

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var files embed.FS

var pages = template.Must(template.ParseFS(files, "templates/*.html"))

const (
	ForgotPassword  = "forgot-password.html"
	LinkSent        = "link-send.html"
	ResetPassword   = "reset-password.html"
	PasswordChanged = "success-password.html"
)

// Data is what every page may show.
type Data struct {
	Email string
	Error string
}

// Render writes the named page.
func Render(w io.Writer, name string, data Data) error {
	return pages.ExecuteTemplate(w, name, data)
}
