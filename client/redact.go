package client

import "regexp"

// Redacted replaces sensitive values in logged requests.
const Redacted = "***"

// reSensitive matches member names that carry secrets.
var reSensitive = regexp.MustCompile(`(?i)(secret|password|passphrase|token|credential|privatekey|authorization)`)

// safeKeys match reSensitive but hold no secrets, such as pagination cursors.
var safeKeys = map[string]bool{
	"ContinuationToken": true, "NextContinuationToken": true,
	"NextToken": true, "PaginationToken": true,
	"ClientRequestToken": true, "IdempotencyToken": true,
}

// Redact returns a copy of request with the values of sensitive keys
// replaced, at any depth. The input is not modified.
func Redact(request map[string]any) map[string]any {
	if request == nil {
		return nil
	}
	out := make(map[string]any, len(request))
	for k, v := range request {
		if !safeKeys[k] && reSensitive.MatchString(k) {
			out[k] = Redacted
			continue
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Redact(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = redactValue(item)
		}
		return out
	}
	return v
}
