package profiletime

import "testing"

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Timestamp
		wantErr ParseErrorKind
		isErr   bool
	}{
		{name: "nanoseconds", input: "150ns", want: 150},
		{name: "microseconds", input: "2us", want: 2000},
		{name: "milliseconds", input: "1.5ms", want: 1_500_000},
		{name: "seconds", input: "3s", want: 3_000_000_000},
		{name: "minutes", input: "2m", want: 120_000_000_000},
		{name: "hours", input: "1h", want: 3_600_000_000_000},
		{name: "negative", input: "-200ns", want: -200},
		{name: "no unit", input: "42", isErr: true, wantErr: NoUnit},
		{name: "invalid unit", input: "42fortnights", isErr: true, wantErr: InvalidUnit},
		{name: "invalid number", input: "abcns", isErr: true, wantErr: InvalidValue},
		{name: "empty", input: "", isErr: true, wantErr: InvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if tt.isErr {
				if err == nil {
					t.Fatalf("ParseTimestamp(%q) = %v, nil; want error", tt.input, got)
				}
				pe, ok := err.(*ParseError)
				if !ok {
					t.Fatalf("ParseTimestamp(%q) error type = %T, want *ParseError", tt.input, err)
				}
				if pe.Kind != tt.wantErr {
					t.Errorf("ParseTimestamp(%q) kind = %v, want %v", tt.input, pe.Kind, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTimestamp(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestTimestampString(t *testing.T) {
	tests := []struct {
		ts   Timestamp
		want string
	}{
		{0, "0ns"},
		{1_000_000_000, "1s"},
		{60_000_000_000, "1m"},
		{1500, "1500ns"},
		{-2_000_000, "-2ms"},
	}
	for _, tt := range tests {
		if got := tt.ts.String(); got != tt.want {
			t.Errorf("Timestamp(%d).String() = %q, want %q", tt.ts, got, tt.want)
		}
	}
}
