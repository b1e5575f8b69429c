// Package notify emails the site operator about contact messages and
// analysis suggestions.
package notify

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// ErrBadToken is returned when the anti-spam token does not match.
var ErrBadToken = errors.New("incorrect anti-spam token")

// DefaultToken is the anti-spam token used when none is configured.
const DefaultToken = "BELGIQUE"

// Message is a rendered email ready for a transport.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Transport delivers rendered messages.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// ContactNotice is a contact form submission.
type ContactNotice struct {
	Name    string
	Email   string
	Message string
}

// SuggestionNotice summarises a submitted suggestion.
type SuggestionNotice struct {
	Type            string
	Name            string
	Laboratory      string
	SampleType      string
	Device          string
	Frequency       string
	TAT             string
	Units           string
	ReferenceValues string
	Stability       string
	InamiCode       string
	AuthorName      string
	AuthorEmail     string
}

// Notifier checks the anti-spam token, renders notices and hands them to
// a transport.
type Notifier struct {
	token     string
	from      string
	to        []string
	transport Transport
}

// New creates a Notifier. An empty token falls back to DefaultToken.
func New(token, from string, to []string, transport Transport) *Notifier {
	if token == "" {
		token = DefaultToken
	}
	return &Notifier{token: token, from: from, to: to, transport: transport}
}

// VerifyToken returns ErrBadToken unless token matches the configured one.
func (n *Notifier) VerifyToken(token string) error {
	if subtle.ConstantTimeCompare([]byte(token), []byte(n.token)) != 1 {
		return ErrBadToken
	}
	return nil
}

// SendContact emails a contact form submission.
func (n *Notifier) SendContact(ctx context.Context, c ContactNotice, token string) error {
	if err := n.VerifyToken(token); err != nil {
		return err
	}
	return n.send(ctx, contactSubject, contactTmpl, c)
}

// SendSuggestionNotice emails a summary of a submitted suggestion.
func (n *Notifier) SendSuggestionNotice(ctx context.Context, s SuggestionNotice, token string) error {
	if err := n.VerifyToken(token); err != nil {
		return err
	}
	return n.send(ctx, suggestionSubject, suggestionTmpl, s)
}

func (n *Notifier) send(ctx context.Context, subject string, tmpl *template.Template, data any) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("rendering %q: %w", subject, err)
	}

	msg := Message{From: n.from, To: n.to, Subject: subject, HTML: buf.String()}
	if err := n.transport.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending %q: %w", subject, err)
	}
	return nil
}

const (
	contactSubject    = "Contact via Compendium d'analyses"
	suggestionSubject = "Suggestion d'analyse"
)

var funcs = template.FuncMap{
	"dash": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "-"
		}
		return s
	},
	// lines escapes s and turns newlines into line breaks.
	"lines": func(s string) template.HTML {
		parts := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
		for i, p := range parts {
			parts[i] = template.HTMLEscapeString(p)
		}
		return template.HTML(strings.Join(parts, "<br/>"))
	},
}

var contactTmpl = template.Must(template.New("contact").Funcs(funcs).Parse(`<h2>Contact via Compendium d'analyses</h2>
<p><b>Nom:</b> {{.Name}}</p>
<p><b>Email:</b> {{.Email}}</p>
<p><b>Message:</b><br/>{{lines .Message}}</p>
`))

var suggestionTmpl = template.Must(template.New("suggestion").Funcs(funcs).Parse(`<h2>Suggestion d'analyse</h2>
<p><b>Type:</b> {{dash .Type}}</p>
<p><b>Nom:</b> {{.Name}}</p>
<p><b>Laboratoire:</b> {{.Laboratory}}</p>
<p><b>Type d'échantillon:</b> {{dash .SampleType}}</p>
<p><b>Appareil:</b> {{dash .Device}}</p>
<p><b>Fréquence:</b> {{dash .Frequency}}</p>
<p><b>TAT:</b> {{dash .TAT}}</p>
<p><b>Unités:</b> {{dash .Units}}</p>
<p><b>Valeurs de référence:</b> {{dash .ReferenceValues}}</p>
<p><b>Stabilité:</b> {{dash .Stability}}</p>
<p><b>Code INAMI:</b> {{dash .InamiCode}}</p>
<p><b>Auteur:</b> {{dash .AuthorName}}</p>
<p><b>Email de l'utilisateur:</b> {{dash .AuthorEmail}}</p>
`))
