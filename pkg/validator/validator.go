package validator

import (
	"net/mail"
	"net/url"
	"sort"
	"strings"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

// Messages returns the error messages ordered by field name, so response
// bodies are deterministic.
func (v ValidationErrors) Messages() []string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(v))
	for _, f := range fields {
		msgs = append(msgs, v[f])
	}
	return msgs
}

func ValidateSignup(username, password string, profileImageURL *string) ValidationErrors {
	errs := make(ValidationErrors)

	// Username
	username = strings.TrimSpace(username)
	if len(username) < 4 {
		errs.Add("username", "Please provide a username with at least 4 characters.")
	} else if len(username) > 30 {
		errs.Add("username", "Username must be 30 characters or less.")
	} else if isEmail(username) {
		errs.Add("username", "Username cannot be an email.")
	}

	// Password
	if len(password) < 6 {
		errs.Add("password", "Password must be 6 characters or more.")
	}

	// Profile image URL, only when given
	if profileImageURL != nil && !isURL(*profileImageURL) {
		errs.Add("profileImageUrl", "Profile image URL must be a valid URL.")
	}

	return errs
}

func ValidateLogin(username, password string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(username) == "" {
		errs.Add("username", "Username is required")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	// mail.ParseAddress accepts display-name forms; only a bare address
	// counts as email-shaped here.
	return err == nil && addr.Address == s
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
