package core

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestMapError_StageErrors(t *testing.T) {
	mapped := MapError(NewStageError(StageRegister, stderrors.New("unique violation")))
	if mapped.Category != goerrors.CategoryExternal {
		t.Fatalf("expected external category, got %q", mapped.Category)
	}
	if mapped.TextCode != ErrorCollaboratorFailure {
		t.Fatalf("expected collaborator failure code, got %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusBadGateway {
		t.Fatalf("expected bad gateway status, got %d", mapped.Code)
	}
	if mapped.Metadata["stage"] != string(StageRegister) {
		t.Fatalf("expected stage metadata, got %#v", mapped.Metadata)
	}
	if !strings.Contains(mapped.Message, "problem registering account") {
		t.Fatalf("expected stage message, got %q", mapped.Message)
	}

	mapped = MapError(NewStageError(StageResolveOwner, stderrors.New("not found")))
	if mapped.TextCode != ErrorOwnerUnresolved {
		t.Fatalf("expected owner unresolved code, got %q", mapped.TextCode)
	}
}

func TestMapError_DispatchAndFallbacks(t *testing.T) {
	mapped := MapError(&DispatchError{Tag: "bogus"})
	if mapped.TextCode != ErrorDispatch || mapped.Category != goerrors.CategoryBadInput {
		t.Fatalf("expected dispatch bad input error, got %q/%q", mapped.Category, mapped.TextCode)
	}

	mapped = MapError(stderrors.New("boom"))
	if mapped.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", mapped.Category)
	}
	if mapped.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", mapped.Code)
	}

	if MapError(nil) != nil {
		t.Fatalf("expected nil mapping for nil error")
	}
}

func TestStageError_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("socket closed")
	err := NewStageError(StageAuthenticate, cause)
	if !stderrors.Is(err, cause) {
		t.Fatalf("expected stage error to unwrap to cause")
	}
	if err.Error() != "could not complete authentication: socket closed" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if _, ok := StageOf(cause); ok {
		t.Fatalf("expected plain error to carry no stage")
	}
	if Stage("custom_step").Message() != "custom step failed" {
		t.Fatalf("unexpected fallback stage message %q", Stage("custom_step").Message())
	}
}

func TestUserMessage_UsesInnermostStage(t *testing.T) {
	inner := NewStageError(StageCreateTestAccount, stderrors.New("developer lacks permission"))
	wrapped := goerrors.Wrap(fmt.Errorf("dispatch: %w", inner), goerrors.CategoryInternal, "handler failed after 1 attempts").
		WithTextCode("HANDLER_EXECUTION_FAILED")

	if got := UserMessage(wrapped); got != "could not create a test account: developer lacks permission" {
		t.Fatalf("unexpected user message %q", got)
	}

	nested := NewStageError(StageRegister, inner)
	if got := UserMessage(nested); got != inner.Error() {
		t.Fatalf("expected innermost stage message, got %q", got)
	}
	if got := UserMessage(stderrors.New("plain")); got != "plain" {
		t.Fatalf("expected plain text, got %q", got)
	}
	if UserMessage(nil) != "" {
		t.Fatalf("expected empty message for nil")
	}
}
