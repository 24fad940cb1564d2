package usecase

import (
	"bytes"
	"embed"
	"errors"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

var errUnknownPurpose = errors.New("notification: no template for purpose")

const defaultLocale = "en"

var subjects = map[string]map[string]string{
	"password_reset": {
		"en": "your password reset code",
		"id": "kode atur ulang kata sandi anda",
	},
	"login": {
		"en": "your sign-in code",
		"id": "kode masuk anda",
	},
}

var localeTags = map[string]language.Tag{
	"en": language.English,
	"id": language.Indonesian,
}

type templateData struct {
	AppName           string
	Name              string
	Code              string
	ExpirationMinutes int
	ExpiresAt         string
}

type renderedEmail struct {
	Subject string
	HTML    string
	Text    string
}

func renderOTPEmail(purpose, locale string, data templateData) (renderedEmail, error) {
	bySubject, ok := subjects[purpose]
	if !ok {
		return renderedEmail{}, errUnknownPurpose
	}

	locale = strings.ToLower(strings.TrimSpace(locale))
	if _, ok := bySubject[locale]; !ok {
		locale = defaultLocale
	}

	name := "otp_" + purpose + "." + locale

	var html bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", data); err != nil {
		return renderedEmail{}, err
	}

	var text bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return renderedEmail{}, err
	}

	// Casers keep state, so each render gets its own.
	subject := cases.Title(localeTags[locale]).String(bySubject[locale])

	return renderedEmail{
		Subject: data.AppName + ": " + subject,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
