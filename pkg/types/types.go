package types

import (
	"errors"
	"fmt"
)

// CapturedImage references one still frame produced by a camera adapter.
// Either Path or Data is set; Data wins when both are present.
type CapturedImage struct {
	Path   string
	Data   []byte
	Format string
}

// Empty reports whether the capture produced no usable reference.
func (c CapturedImage) Empty() bool {
	return c.Path == "" && len(c.Data) == 0
}

// EncodedImage is the Base64 text of a resized JPEG, already sanitized.
type EncodedImage struct {
	Base64 string
	Width  int
	Height int
	Bytes  int
}

// State is a step of the interaction state machine.
type State string

const (
	StateIdle                 State = "idle"
	StateRequestingPermission State = "requesting_permission"
	StateCapturing            State = "capturing"
	StateNormalizing          State = "normalizing"
	StateDescribing           State = "describing"
	StateSpeaking             State = "speaking"
	StateError                State = "error"
)

// PermissionStatus mirrors platform permission answers.
type PermissionStatus string

const (
	PermissionUndetermined PermissionStatus = "undetermined"
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
)

// ErrorKind classifies pipeline failures.
type ErrorKind string

const (
	KindConfiguration     ErrorKind = "configuration"
	KindPermissionDenied  ErrorKind = "permission_denied"
	KindCaptureFailure    ErrorKind = "capture_failure"
	KindProcessingFailure ErrorKind = "processing_failure"
	KindRemoteService     ErrorKind = "remote_service"
	KindEmptyResponse     ErrorKind = "empty_response"
	KindUnknown           ErrorKind = "unknown"
)

// Error is a classified pipeline failure. Status is only set for
// KindRemoteService.
type Error struct {
	Kind    ErrorKind
	Status  int
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Kind == KindRemoteService {
		if e.Reason != "" {
			return fmt.Sprintf("Falha na IA: %d - %s", e.Status, e.Reason)
		}
		return fmt.Sprintf("Falha na IA: %d", e.Status)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error with a fixed message.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// ConfigurationError reports a missing credential.
func ConfigurationError() *Error {
	return NewError(KindConfiguration, "Chave de API não configurada.", nil)
}

// RemoteServiceError reports a non-2xx answer from the completion endpoint.
func RemoteServiceError(status int, reason string) *Error {
	return &Error{Kind: KindRemoteService, Status: status, Reason: reason}
}

// EmptyResponseError reports a 2xx answer without extractable text.
func EmptyResponseError() *Error {
	return NewError(KindEmptyResponse, "Resposta vazia da IA.", nil)
}

// KindOf returns the kind of err, or KindUnknown if it is not classified.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Status summarizes the controller for the gesture surfaces.
type Status struct {
	State              State `json:"state"`
	Busy               bool  `json:"busy"`
	HasLastDescription bool  `json:"has_last_description"`
}
