package command

import "testing"

func TestCheckExactPhrases(t *testing.T) {
	t.Parallel()

	f := New()
	cases := []struct {
		text string
		want Action
	}{
		{"new line", ActionNewLine},
		{"New Line", ActionNewLine},
		{"new line.", ActionNewLine},
		{"  new   paragraph  ", ActionNewParagraph},
		{"stop dictation", ActionPause},
		{"Pause dictation!", ActionPause},
		{"start dictation", ActionResume},
		{"resume dictation", ActionResume},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.text, func(t *testing.T) {
			t.Parallel()
			got, ok := f.Check(tc.text)
			if !ok {
				t.Fatalf("Check(%q) = not a command", tc.text)
			}
			if got != tc.want {
				t.Fatalf("Check(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestCheckOrdinaryDictationPassesThrough(t *testing.T) {
	t.Parallel()

	f := New()
	cases := []string{
		"",
		"   ",
		"the meeting starts at nine",
		"please start the dictation machine tomorrow",
		"a new line of products launched today",
		"completely unrelated sentence",
	}

	for _, text := range cases {
		if got, ok := f.Check(text); ok {
			t.Errorf("Check(%q) = %v, want no command", text, got)
		}
	}
}

func TestCheckPhoneticSlips(t *testing.T) {
	t.Parallel()

	f := New()
	cases := []struct {
		text string
		want Action
	}{
		// Near-misses a recognizer produces for short command phrases.
		{"new lines", ActionNewLine},
		{"knew line", ActionNewLine},
		{"stop dictations", ActionPause},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.text, func(t *testing.T) {
			t.Parallel()
			got, ok := f.Check(tc.text)
			if !ok {
				t.Fatalf("Check(%q) = not a command, want %v", tc.text, tc.want)
			}
			if got != tc.want {
				t.Fatalf("Check(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestCheckPhoneticRespectsLength(t *testing.T) {
	t.Parallel()

	// A long sentence containing command-like words must never trigger.
	f := New()
	if got, ok := f.Check("we should draw a new line under this whole affair"); ok {
		t.Fatalf("long sentence classified as command %v", got)
	}
}

func TestWithPhoneticThreshold(t *testing.T) {
	t.Parallel()

	// With an impossible threshold only exact regex matches survive.
	f := New(WithPhoneticThreshold(1.01))
	if _, ok := f.Check("knew line"); ok {
		t.Fatal("phonetic match must be disabled by threshold above 1")
	}
	if _, ok := f.Check("new line"); !ok {
		t.Fatal("regex match must be unaffected by the phonetic threshold")
	}
}

func TestActionString(t *testing.T) {
	t.Parallel()

	cases := map[Action]string{
		ActionNone:         "none",
		ActionNewLine:      "new-line",
		ActionNewParagraph: "new-paragraph",
		ActionPause:        "pause",
		ActionResume:       "resume",
	}
	for a, want := range cases {
		if got := a.String(); got != want {
			t.Errorf("Action(%d).String() = %q, want %q", int(a), got, want)
		}
	}
}
