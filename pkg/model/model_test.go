package model

import (
	"errors"
	"testing"
)

func TestValidateName(t *testing.T) {
	if err := ValidateName(""); !errors.Is(err, ErrNameEmpty) {
		t.Fatalf("ValidateName(\"\") = %v, want ErrNameEmpty", err)
	}
	// Whitespace and symbols are not the server's concern, only emptiness is.
	for _, name := range []string{"alice", "a b", "Bob!", " "} {
		if err := ValidateName(name); err != nil {
			t.Fatalf("ValidateName(%q) = %v, want nil", name, err)
		}
	}
}
