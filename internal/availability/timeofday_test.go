package availability

import "testing"

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "canonical form", input: "09:00", want: "09:00", ok: true},
		{name: "single digit hour", input: "9:00", want: "09:00", ok: true},
		{name: "bare hour", input: "17", want: "17:00", ok: true},
		{name: "three digit compact", input: "930", want: "09:30", ok: true},
		{name: "four digit compact", input: "1615", want: "16:15", ok: true},
		{name: "h separator", input: "9h30", want: "09:30", ok: true},
		{name: "morning meridiem", input: "9am", want: "09:00", ok: true},
		{name: "afternoon meridiem", input: "5:30pm", want: "17:30", ok: true},
		{name: "uppercase meridiem", input: "5:30PM", want: "17:30", ok: true},
		{name: "noon stays noon", input: "12pm", want: "12:00", ok: true},
		{name: "midnight by meridiem", input: "12am", want: "00:00", ok: true},
		{name: "surrounding whitespace", input: "  10:15  ", want: "10:15", ok: true},
		{name: "empty", input: "", ok: false},
		{name: "nan placeholder", input: "NaN", ok: false},
		{name: "none placeholder", input: "none", ok: false},
		{name: "null placeholder", input: "null", ok: false},
		{name: "text", input: "closed", ok: false},
		{name: "bare meridiem", input: "pm", ok: false},
		{name: "hour too large", input: "25:00", ok: false},
		{name: "minute too large", input: "10:75", ok: false},
		{name: "negative hour", input: "-1:00", ok: false},
		{name: "too many digits", input: "123456", ok: false},
		{name: "garbage with separator", input: "ab:cd", ok: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseTimeOfDay(tc.input)
			if ok != tc.ok {
				t.Fatalf("ParseTimeOfDay(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			}
			if ok && got.String() != tc.want {
				t.Fatalf("ParseTimeOfDay(%q) = %q, want %q", tc.input, got.String(), tc.want)
			}
		})
	}
}

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	if got := Canonicalize("9am"); got != "09:00" {
		t.Fatalf("expected 09:00, got %q", got)
	}
	if got := Canonicalize("bogus"); got != "" {
		t.Fatalf("expected empty string for unparseable input, got %q", got)
	}
}

func TestTimeOfDayMinutes(t *testing.T) {
	t.Parallel()

	tod := TimeOfDay{Hour: 13, Minute: 45}
	if tod.Minutes() != 13*60+45 {
		t.Fatalf("expected 825 minutes, got %d", tod.Minutes())
	}
}
