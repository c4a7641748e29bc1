package detector

import (
	"errors"
	"fmt"
	"strings"
)

// APIError reports a response that parsed but did not carry status "success".
type APIError struct {
	Op      string
	Message string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("%s: rejected by service", e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// StatusError reports an HTTP error status without a usable message body.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Code)
}

// UserMessage picks the text shown to the operator for err: the service's own
// message when it sent one, otherwise fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	var msg interface{ UserMessage() string }
	if errors.As(err, &msg) {
		return msg.UserMessage()
	}
	return fallback
}
