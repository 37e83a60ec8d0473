package backend

import (
	"errors"
	"fmt"
)

// TransientError marks a failure worth retrying: rate limits, server-side
// errors, network faults.
type TransientError struct {
	Status int // HTTP status when applicable, 0 for transport errors
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("transient backend error (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transient backend error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError marks a failure that retrying cannot fix: bad credentials, an
// unknown model, a malformed request. It aborts the whole run.
type FatalError struct {
	Status  int
	Message string
}

func (e *FatalError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("fatal backend error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("fatal backend error: %s", e.Message)
}

// IsFatal reports whether err is (or wraps) a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// classifyStatus maps a non-200 HTTP status onto the error taxonomy.
// 429 and 5xx are transient; everything else in the 4xx range means the
// request itself is unacceptable and will not improve with retries.
func classifyStatus(status int, body string) error {
	switch {
	case status == 429 || status == 408 || status >= 500:
		return &TransientError{Status: status, Err: errors.New(truncateBody(body))}
	default:
		return &FatalError{Status: status, Message: truncateBody(body)}
	}
}

// truncateBody keeps error payloads readable in logs and reports.
func truncateBody(body string) string {
	const max = 512
	if len(body) > max {
		return body[:max] + "..."
	}
	return body
}
