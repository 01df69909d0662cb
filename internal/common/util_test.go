package common

import (
	"encoding/hex"
	"errors"
	"testing"
)

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 16
	s, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != n*2 {
		t.Fatalf("expected hex length %d, got %d", n*2, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		t.Fatalf("string is not valid hex: %v", err)
	}
}

func TestMakeRandHexString_Distinct(t *testing.T) {
	a, err := MakeRandHexString(16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := MakeRandHexString(16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Fatalf("two random strings are identical: %q", a)
	}
}

func TestGenerateRandByteArray_Length(t *testing.T) {
	if got := len(GenerateRandByteArray(24)); got != 24 {
		t.Fatalf("expected length 24, got %d", got)
	}
}

func TestWipeByteArray(t *testing.T) {
	buf := []byte("Secure1!x")
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
	WipeByteArray(nil)
}

func TestValidationError_IsAndMessage(t *testing.T) {
	err := NewValidationError([]string{"a", "b"})
	if !errors.Is(err, ErrorValidation) {
		t.Fatalf("expected errors.Is(err, ErrorValidation)")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Violations) != 2 {
		t.Fatalf("expected *ValidationError with 2 violations, got %#v", err)
	}
	if err.Error() != "validation error: a; b" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestNewValidationError_EmptyIsNil(t *testing.T) {
	if err := NewValidationError(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
