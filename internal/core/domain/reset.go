package domain

import (
	"regexp"
	"strings"
	"time"
)

// ResetTTL is how long a reset token/code pair stays valid.
const ResetTTL = 24 * time.Hour

// ResetMaxAttempts is the number of confirmation attempts a record allows.
const ResetMaxAttempts = 3

var resetCodePattern = regexp.MustCompile(`^\d{6}$`)

// ResetRecord tracks one in-flight password reset. Exactly one live record
// exists per user; issuing a new one invalidates the previous token/code pair.
type ResetRecord struct {
	UserID            string `json:"user_id"`
	Email             string `json:"email"`
	Code              string `json:"code"`
	ExpiresAt         int64  `json:"expires_at"`
	AttemptsRemaining int    `json:"attempts_remaining"`
}

func (r *ResetRecord) IsExpired(now time.Time) bool {
	return r.ExpiresAt < now.Unix()
}

// ResetCredential is the token-or-code sum type produced by a single parse
// step. Exactly one variant is ever populated.
type ResetCredential struct {
	token string
	code  string
}

// ParseResetCredential builds a ResetCredential from the two raw inputs.
// Supplying both is rejected here so no downstream branch ever sees an
// ambiguous pair, and a malformed code is rejected before any lookup so the
// response does not leak whether a well-formed code exists.
func ParseResetCredential(token, code string) (ResetCredential, error) {
	token = strings.TrimSpace(token)
	code = strings.TrimSpace(code)

	switch {
	case token != "" && code != "":
		return ResetCredential{}, ErrAmbiguousResetCredential
	case token == "" && code == "":
		return ResetCredential{}, ErrMissingResetCredential
	case code != "":
		if !resetCodePattern.MatchString(code) {
			return ResetCredential{}, ErrInvalidCodeFormat
		}
		return ResetCredential{code: code}, nil
	default:
		return ResetCredential{token: token}, nil
	}
}

// Token returns the token variant, if set.
func (c ResetCredential) Token() (string, bool) {
	return c.token, c.token != ""
}

// Code returns the code variant, if set.
func (c ResetCredential) Code() (string, bool) {
	return c.code, c.code != ""
}

// MaskEmail hides most of the local part: maria.garcia@empresa.com becomes
// m***a@empresa.com.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return email
	}
	local, dom := email[:at], email[at+1:]
	if len(local) <= 2 {
		return local[:1] + "***@" + dom
	}
	return local[:1] + "***" + local[len(local)-1:] + "@" + dom
}
