// Package contact validates contact form submissions, checks the CAPTCHA
// and stores the message.
package contact

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"
)

// Form field names, shared by the HTML form and the JSON API.
const (
	FieldName          = "name"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldCompany       = "company"
	FieldSubject       = "subject"
	FieldMessage       = "message"
	FieldCaptchaAnswer = "captcha_answer"
	FieldCaptchaToken  = "captcha_token"
)

// Localization message ids used as field errors.
const (
	MsgRequired      = "contact_error_required"
	MsgTooLong       = "contact_error_too_long"
	MsgInvalidEmail  = "contact_error_email"
	MsgCaptchaFailed = "captcha_failed"
)

const maxBodyBytes = 64 << 10

var ErrBadRequest = errors.New("contact: can't decode request body")

type Form struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	Company       string `json:"company,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Message       string `json:"message"`
	CaptchaAnswer any    `json:"captcha_answer"`
	CaptchaToken  string `json:"captcha_token"`
}

// ParseRequest reads a form-encoded or JSON contact submission.
func ParseRequest(r *http.Request) (Form, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		var f Form
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&f); err != nil {
			return Form{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		return f.trimmed(), nil
	}

	if err := r.ParseForm(); err != nil {
		return Form{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	f := Form{
		Name:          r.PostForm.Get(FieldName),
		Email:         r.PostForm.Get(FieldEmail),
		Phone:         r.PostForm.Get(FieldPhone),
		Company:       r.PostForm.Get(FieldCompany),
		Subject:       r.PostForm.Get(FieldSubject),
		Message:       r.PostForm.Get(FieldMessage),
		CaptchaAnswer: r.PostForm.Get(FieldCaptchaAnswer),
		CaptchaToken:  r.PostForm.Get(FieldCaptchaToken),
	}

	return f.trimmed(), nil
}

func (f Form) trimmed() Form {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Company = strings.TrimSpace(f.Company)
	f.Subject = strings.TrimSpace(f.Subject)
	f.Message = strings.TrimSpace(f.Message)
	f.CaptchaToken = strings.TrimSpace(f.CaptchaToken)
	return f
}

// AnswerString is the submitted CAPTCHA answer for re-display.
func (f Form) AnswerString() string {
	if f.CaptchaAnswer == nil {
		return ""
	}
	return fmt.Sprint(f.CaptchaAnswer)
}

// ValidationError maps field names to localization message ids.
type ValidationError struct {
	Fields map[string]string
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "contact: invalid fields: " + strings.Join(keys, ", ")
}

func (v *ValidationError) add(field, msg string) {
	if v.Fields == nil {
		v.Fields = map[string]string{}
	}
	if _, ok := v.Fields[field]; !ok {
		v.Fields[field] = msg
	}
}

var limits = []struct {
	field    string
	max      int
	required bool
	value    func(Form) string
}{
	{FieldName, 200, true, func(f Form) string { return f.Name }},
	{FieldEmail, 320, true, func(f Form) string { return f.Email }},
	{FieldPhone, 64, false, func(f Form) string { return f.Phone }},
	{FieldCompany, 200, false, func(f Form) string { return f.Company }},
	{FieldSubject, 200, false, func(f Form) string { return f.Subject }},
	{FieldMessage, 5000, true, func(f Form) string { return f.Message }},
}

// Validate checks everything except the CAPTCHA.
func (f Form) Validate() *ValidationError {
	var ve ValidationError

	for _, l := range limits {
		v := l.value(f)
		switch {
		case l.required && v == "":
			ve.add(l.field, MsgRequired)
		case utf8.RuneCountInString(v) > l.max:
			ve.add(l.field, MsgTooLong)
		}
	}

	if f.Email != "" {
		addr, err := mail.ParseAddress(f.Email)
		if err != nil || addr.Address != f.Email {
			ve.add(FieldEmail, MsgInvalidEmail)
		}
	}

	if len(ve.Fields) == 0 {
		return nil
	}
	return &ve
}
