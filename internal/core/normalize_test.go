package core

import (
	"errors"
	"testing"
)

func TestNormalizeCollegeCode(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"007", "7", false},
		{"0", "0", false},
		{"123", "123", false},
		{"01002", "1002", false},
		{"0000", "0", false},
		{" 42 ", "42", false},
		{"+5", "5", false},
		{"-0", "0", false},
		{"-012", "-12", false},
		{"123456789012345678901234567890", "123456789012345678901234567890", false},
		{"1_000", "1000", false},
		{"0_07", "7", false},
		{"\u0661\u0662", "12", false},      // Arabic-Indic
		{"\u0660\u0660\u0667", "7", false}, // Arabic-Indic, zero padded
		{"\uff10\uff17", "7", false},       // Fullwidth
		{"-\u0967\u0966", "-10", false},    // Devanagari

		{"12A", "", true},
		{"", "", true},
		{"   ", "", true},
		{"1.0", "", true},
		{"0x1F", "", true},
		{"_1", "", true},
		{"1_", "", true},
		{"1__000", "", true},
		{"+_1", "", true},
		{"-", "", true},
		{"- 1", "", true},
		{"1 000", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeCollegeCode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeCollegeCode(%q): expected error %v, got %v", tt.in, tt.wantErr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeCollegeCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeCollegeCode_ErrorType(t *testing.T) {
	_, err := NormalizeCollegeCode("12A")
	if !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}

	var codeErr *CodeError
	if !errors.As(err, &codeErr) {
		t.Fatalf("expected *CodeError, got %T", err)
	}
	if codeErr.Code != "12A" {
		t.Errorf("CodeError.Code = %q, want %q", codeErr.Code, "12A")
	}
}
