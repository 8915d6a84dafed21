package ledger

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	base := errors.New("socket closed")
	err := WrapError(KindTimeout, "anchor submission timed out", base)

	if !IsKind(err, KindTimeout) {
		t.Fatalf("IsKind(KindTimeout) = false")
	}
	if IsKind(err, KindReverted) {
		t.Fatalf("IsKind matched the wrong kind")
	}
	if !errors.Is(err, base) {
		t.Fatalf("wrapped cause lost")
	}
	if !Ambiguous(err) {
		t.Fatalf("timeout not reported ambiguous")
	}
	if Retryable(err) {
		t.Fatalf("timeout must not be blindly retryable")
	}
}

func TestErrorKindSurvivesWrapping(t *testing.T) {
	inner := NewError(KindUnavailable, "rpc endpoint down")
	outer := fmt.Errorf("anchor: %w", inner)

	if !IsKind(outer, KindUnavailable) {
		t.Fatalf("kind not visible through fmt wrapping")
	}
	if !Retryable(outer) {
		t.Fatalf("pre-submission unavailability should be retryable")
	}
}

func TestIsKindOnForeignError(t *testing.T) {
	if IsKind(errors.New("plain"), KindInternal) {
		t.Fatalf("IsKind matched a non-structured error")
	}
}

func TestExplorerTxURL(t *testing.T) {
	got := ExplorerTxURL("https://scan.example/", "0xabc123")
	want := "https://scan.example/tx/0xabc123"
	if got != want {
		t.Fatalf("ExplorerTxURL = %q, want %q", got, want)
	}
	if got := ExplorerTxURL("https://scan.example", "0xabc123"); got != want {
		t.Fatalf("ExplorerTxURL without slash = %q, want %q", got, want)
	}
}
