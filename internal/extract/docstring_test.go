package extract

import (
	"reflect"
	"testing"
)

func TestCleanDocstring(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"single_line", "  Hello.  ", "Hello."},
		{
			"dedent_continuation",
			"Summary.\n\n    Indented body.\n    Second line.\n    ",
			"Summary.\n\nIndented body.\nSecond line.",
		},
		{
			"mixed_depths",
			"Top.\n        deep\n    shallow\n",
			"Top.\n    deep\nshallow",
		},
		{"empty", "", ""},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanDocstring(tt.in); got != tt.want {
				t.Errorf("cleanDocstring(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRaisesFromDocstring(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want []string
	}{
		{
			"google_section",
			"Do it.\n\nRaises:\n    ValueError: if bad.\n    KeyError: if missing.\n",
			[]string{"ValueError", "KeyError"},
		},
		{
			"google_section_terminated",
			"Do it.\n\nRaises:\n    ValueError: if bad.\n\nReturns:\n    thing: not an exception.\n",
			[]string{"ValueError"},
		},
		{
			"numpy_underlined",
			"Summary.\n\nRaises\n------\nMyErr: some details\n",
			[]string{"MyErr"},
		},
		{
			"numpy_short_underline_ignored",
			"Summary.\n\nRaises\n--\nMyErr: some details\n",
			nil,
		},
		{
			"rest_fields_anywhere",
			"See also :raises OtherErr: more details.\n\nAnd :raise ValueError: here too.\n",
			[]string{"OtherErr", "ValueError"},
		},
		{
			"dedupe_first_seen",
			"Raises:\n    ValueError: once.\n    ValueError: twice.\n    OSError: fine.\n",
			[]string{"ValueError", "OSError"},
		},
		{
			"dotted_names",
			"Raises:\n    requests.HTTPError: on failure.\n",
			[]string{"requests.HTTPError"},
		},
		{
			"bulleted_entries",
			"Raises:\n    - ValueError: bad input.\n    * KeyError: missing.\n",
			[]string{"ValueError", "KeyError"},
		},
		{
			"deprecated_note_in_section",
			"Raises:\n    Deprecated: not an exception.\n    RuntimeError: real one.\n",
			[]string{"RuntimeError"},
		},
		{
			"no_section",
			"Nothing here about exceptions.\n",
			nil,
		},
		{
			"non_name_entries_skipped",
			"Raises:\n    see above: not a name.\n    404: not a name either.\n",
			nil,
		},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got := raisesFromDocstring(tt.doc)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("raisesFromDocstring = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDocstringDeprecated(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want bool
	}{
		{"google_note", "Old thing.\n\nDeprecated: use new().\n", true},
		{"rest_directive", "Old thing.\n\n.. deprecated:: 1.2\n   Use new().\n", true},
		{"case_insensitive", "DEPRECATED: gone soon.\n", true},
		{"mention_only", "This replaces the deprecated helper.\n", false},
		{"clean", "Fresh and supported.\n", false},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := docstringDeprecated(tt.doc); got != tt.want {
				t.Errorf("docstringDeprecated(%q) = %v, want %v", tt.doc, got, tt.want)
			}
		})
	}
}
