package utils

import (
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

type TemplateRegistry struct {
	Templates *template.Template
}

func (t *TemplateRegistry) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.Templates.ExecuteTemplate(w, name, data)
}

// TemplateFuncs are the helpers available inside page templates.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"percent":    Percent,
		"hostname":   Hostname,
		"formatTime": FormatTime,
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
	}
}

// Percent renders a [0,1] confidence as a whole-number percentage string.
func Percent(confidence float64) string {
	return fmt.Sprintf("%d%%", int(confidence*100+0.5))
}

// Hostname extracts the host for compact display of long URLs.
// Unparsable input comes back unchanged.
func Hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}

// FormatTime renders timestamps the way the history table shows them.
func FormatTime(t time.Time) string {
	return t.Local().Format("Jan 2, 2006 15:04")
}

// IsValidEmail is a light sanity check for signup input; the persistence
// backend enforces uniqueness.
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}
