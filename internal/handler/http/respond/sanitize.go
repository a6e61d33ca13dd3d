package respond

import "regexp"

var (
	dsnPasswordPattern = regexp.MustCompile(`://([^:/@]+):([^@]+)@`)
	apiKeyParamPattern = regexp.MustCompile(`(?i)(apikey|api_key|token)=([^&\s]+)`)
	bearerPattern      = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-_.]+`)
)

// SanitizeError masks credentials that commonly end up in error strings:
// DSN passwords, API keys in query strings, and bearer tokens.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = dsnPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	msg = apiKeyParamPattern.ReplaceAllString(msg, "$1=****")
	msg = bearerPattern.ReplaceAllString(msg, "Bearer ****")
	return msg
}
