package chat

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

var (
	// ErrRemoteFailure matches every *RemoteError via errors.Is.
	ErrRemoteFailure = errors.New("remote model call failed")

	// ErrMalformedResponse is returned when the model answered but its
	// output could not be extracted or did not have the expected shape.
	ErrMalformedResponse = errors.New("the AI model returned an invalid response for the product details, please try again")
)

// FailureKind categorises a remote failure.
type FailureKind int

const (
	KindUnknown FailureKind = iota
	KindInvalidKey
	KindQuotaExceeded
	KindNetwork
	KindBlocked
	KindNoImage
)

func (k FailureKind) String() string {
	switch k {
	case KindInvalidKey:
		return "invalid_key"
	case KindQuotaExceeded:
		return "quota"
	case KindNetwork:
		return "network"
	case KindBlocked:
		return "blocked"
	case KindNoImage:
		return "no_image"
	default:
		return "unknown"
	}
}

// RemoteError is a failed call to the model backend. Message is the
// human-readable text shown to the user and includes the backend's own
// message when one was available.
type RemoteError struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *RemoteError) Unwrap() error { return e.Err }

// UserMessage is the text safe to show outside the process. Unlike Error it
// never includes the wrapped transport error.
func (e *RemoteError) UserMessage() string { return e.Message }

// Is lets errors.Is(err, ErrRemoteFailure) match any RemoteError.
func (e *RemoteError) Is(target error) bool { return target == ErrRemoteFailure }

// classifyError turns an SDK or transport error into a RemoteError.
func classifyError(err error) *RemoteError {
	if err == nil {
		return nil
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return classifyStatus(apiErrPtr.Code, apiErrPtr.Message, err)
	}

	errLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errLower, "api key not valid") ||
		strings.Contains(errLower, "invalid api key") ||
		strings.Contains(errLower, "api_key_invalid") ||
		strings.Contains(errLower, "permission denied"):
		return &RemoteError{Kind: KindInvalidKey, Message: "API key is invalid or has been revoked", Err: err}

	case strings.Contains(errLower, "quota") ||
		strings.Contains(errLower, "resource exhausted") ||
		strings.Contains(errLower, "rate limit"):
		return &RemoteError{Kind: KindQuotaExceeded, Message: "API quota exceeded or rate limited", Err: err}

	case strings.Contains(errLower, "connection") ||
		strings.Contains(errLower, "network") ||
		strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "deadline exceeded") ||
		strings.Contains(errLower, "dial") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "unreachable"):
		return &RemoteError{Kind: KindNetwork, Message: "Network error - check your internet connection", Err: err}

	default:
		return &RemoteError{Kind: KindUnknown, Message: "Gemini request failed", Err: err}
	}
}

// classifyStatus categorises an HTTP status returned by the Gemini API.
// backendMsg is surfaced to the user when the status has no better text.
func classifyStatus(code int, backendMsg string, err error) *RemoteError {
	var re *RemoteError
	switch {
	case code == http.StatusBadRequest:
		re = &RemoteError{Kind: KindUnknown, Message: withBackend("Gemini rejected the request", backendMsg)}
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		re = &RemoteError{Kind: KindInvalidKey, Message: "API key is invalid, expired, or lacks permissions"}
	case code == http.StatusTooManyRequests:
		re = &RemoteError{Kind: KindQuotaExceeded, Message: "API rate limit exceeded - try again later"}
	case code >= 500:
		re = &RemoteError{Kind: KindNetwork, Message: withBackend("Gemini API server error - try again later", backendMsg)}
	default:
		re = &RemoteError{Kind: KindUnknown, Message: withBackend(fmt.Sprintf("Gemini API returned status %d", code), backendMsg)}
	}
	re.Err = err
	log.Error().Int("code", code).Str("kind", re.Kind.String()).Str("message", backendMsg).Msg("Gemini API error")
	return re
}

func withBackend(msg, backendMsg string) string {
	if backendMsg == "" {
		return msg
	}
	return msg + " (" + backendMsg + ")"
}
