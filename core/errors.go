package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorConfiguration       = "ONBOARDING_CONFIGURATION"
	ErrorCollaboratorFailure = "ONBOARDING_COLLABORATOR_FAILURE"
	ErrorDispatch            = "ONBOARDING_DISPATCH"
	ErrorOwnerUnresolved     = "ONBOARDING_OWNER_UNRESOLVED"
	ErrorProfileNotFound     = "ONBOARDING_PROFILE_NOT_FOUND"
	ErrorUnexpected          = "ONBOARDING_UNEXPECTED"
)

// Stage identifies the collaborator call that failed.
type Stage string

const (
	StageCreateTestAccount Stage = "create_test_account"
	StageAuthenticate      Stage = "authenticate"
	StageRegister          Stage = "register"
	StageResolveOwner      Stage = "resolve_owner"
	StageConnectStore      Stage = "connect_store"
	StageDisconnectStore   Stage = "disconnect_store"
	StageLoginSetup        Stage = "login_setup"
	StageLoginClean        Stage = "login_clean"
	StageListAccounts      Stage = "list_accounts"
)

var stageMessages = map[Stage]string{
	StageCreateTestAccount: "could not create a test account",
	StageAuthenticate:      "could not complete authentication",
	StageRegister:          "problem registering account",
	StageResolveOwner:      "could not resolve owner data",
	StageConnectStore:      "could not connect to the backing store",
	StageDisconnectStore:   "could not disconnect from the backing store",
	StageLoginSetup:        "could not initialize the login provider",
	StageLoginClean:        "could not release the login provider",
	StageListAccounts:      "could not list accounts",
}

func (s Stage) Message() string {
	if msg, ok := stageMessages[s]; ok {
		return msg
	}
	return strings.ReplaceAll(string(s), "_", " ") + " failed"
}

// StageError wraps a collaborator failure with the stage that produced it.
type StageError struct {
	Stage Stage
	Cause error
}

func NewStageError(stage Stage, cause error) *StageError {
	return &StageError{Stage: stage, Cause: cause}
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause == nil {
		return e.Stage.Message()
	}
	return e.Stage.Message() + ": " + e.Cause.Error()
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *StageError) ToServiceError() *goerrors.Error {
	textCode := ErrorCollaboratorFailure
	if e.Stage == StageResolveOwner {
		textCode = ErrorOwnerUnresolved
	}
	cause := e.Cause
	if cause == nil {
		cause = errors.New(e.Stage.Message())
	}
	return goerrors.Wrap(cause, goerrors.CategoryExternal, e.Error()).
		WithCode(http.StatusBadGateway).
		WithTextCode(textCode).
		WithMetadata(map[string]any{"stage": string(e.Stage)})
}

// StageOf returns the stage of the outermost StageError in err's chain.
func StageOf(err error) (Stage, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) && stageErr != nil {
		return stageErr.Stage, true
	}
	return "", false
}

// UserMessage returns the text shown to the user for err: the message of the
// innermost StageError in the chain, or err's own text when there is none.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var found *StageError
	for current := err; current != nil; {
		var stageErr *StageError
		if !errors.As(current, &stageErr) || stageErr == nil {
			break
		}
		found = stageErr
		current = stageErr.Cause
	}
	if found != nil {
		return found.Error()
	}
	return err.Error()
}

// DispatchError reports a menu selection that maps to no registered action.
type DispatchError struct {
	Tag string
}

func (e *DispatchError) Error() string {
	if e == nil {
		return "unknown action"
	}
	return fmt.Sprintf("unknown action %q", e.Tag)
}

func (e *DispatchError) ToServiceError() *goerrors.Error {
	return goerrors.New(e.Error(), goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorDispatch)
}

func ConfigurationError(field string, message string) error {
	return goerrors.NewValidation("configuration is incomplete", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorConfiguration).
		WithSeverity(goerrors.SeverityError)
}

type serviceErrorConvertible interface {
	ToServiceError() *goerrors.Error
}

// MapError normalizes err into a go-errors envelope with an onboarding text
// code. nil maps to nil.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var convertible serviceErrorConvertible
	if errors.As(err, &convertible) {
		if mapped := convertible.ToServiceError(); mapped != nil {
			return ensureErrorEnvelope(mapped)
		}
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	if mapped == nil {
		mapped = goerrors.New(err.Error(), goerrors.CategoryInternal)
	}
	if strings.TrimSpace(mapped.TextCode) == "" {
		mapped.TextCode = ErrorUnexpected
	}
	return ensureErrorEnvelope(mapped)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorConfiguration
	case goerrors.CategoryExternal, goerrors.CategoryAuth, goerrors.CategoryNotFound:
		return ErrorCollaboratorFailure
	default:
		return ErrorUnexpected
	}
}

func httpStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
