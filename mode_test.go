package dfpwm

import (
	"errors"
	"testing"
)

func TestModeParams(t *testing.T) {
	tests := []struct {
		mode Mode
		want Params
	}{
		{ModeCurrent, Params{Increment: 1, Decrement: 1, Precision: 10, AdaptsResponse: false}},
		{ModeLegacy, Params{Increment: 7, Decrement: 20, Precision: 8, AdaptsResponse: true}},
		{Mode(9), Params{Increment: 1, Decrement: 1, Precision: 10, AdaptsResponse: false}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			if got := tt.mode.Params(); got != tt.want {
				t.Fatalf("Params()=%+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeCurrent, false},
		{"current", ModeCurrent, false},
		{"DFPWM1a", ModeCurrent, false},
		{" new ", ModeCurrent, false},
		{"legacy", ModeLegacy, false},
		{"old", ModeLegacy, false},
		{"dfpwm1", ModeLegacy, false},
		{"dfpwm2", ModeCurrent, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownMode) {
					t.Fatalf("ParseMode(%q) err=%v, want ErrUnknownMode", tt.in, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("ParseMode(%q): %v", tt.in, err)
			}

			if got != tt.want {
				t.Fatalf("ParseMode(%q)=%s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestModeText(t *testing.T) {
	for _, mode := range []Mode{ModeCurrent, ModeLegacy} {
		text, err := mode.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%s): %v", mode, err)
		}

		var got Mode
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}

		if got != mode {
			t.Fatalf("got %s, want %s", got, mode)
		}
	}

	if _, err := Mode(7).MarshalText(); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}

	if Mode(7).String() != "mode(7)" {
		t.Fatalf("unexpected String() %q", Mode(7).String())
	}
}
