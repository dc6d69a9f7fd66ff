package respond

import (
	"regexp"
)

var (
	// anthropicKeyPattern must run before openaiKeyPattern, which would
	// otherwise match the Anthropic prefix too.
	anthropicKeyPattern = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	openaiKeyPattern    = regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`)

	// NewsAPI keys travel as the apiKey query parameter.
	newsAPIKeyPattern = regexp.MustCompile(`(?i)(apiKey=)[^&\s"]+`)

	// Password inside a DSN.
	dbPasswordPattern = regexp.MustCompile(`://([^:]+):([^@]+)@`)
)

// SanitizeError returns the error message with credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = anthropicKeyPattern.ReplaceAllString(msg, "sk-ant-****")
	msg = openaiKeyPattern.ReplaceAllString(msg, "sk-****")
	msg = newsAPIKeyPattern.ReplaceAllString(msg, "${1}****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
