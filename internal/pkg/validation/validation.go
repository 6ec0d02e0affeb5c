package validation

import "regexp"

// emailRe is intentionally loose: anything@anything.anything. Used only on
// the operator login form. Lead submissions are captured raw, without any
// format check — review there is manual.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}
