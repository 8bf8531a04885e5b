package langdetect

import "testing"

func TestDetectISO6391(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{
			name: "english headline",
			text: "Ceasefire negotiations resumed this morning after weeks of stalled talks",
			want: "en",
		},
		{
			name: "ukrainian headline",
			text: "Переговори про припинення вогню відновилися сьогодні вранці",
			want: "uk",
		},
		{
			name: "empty input",
			text: "",
			want: "",
		},
		{
			name: "too few letters",
			text: "ok 42!",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectISO6391(tc.text); got != tc.want {
				t.Fatalf("DetectISO6391(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}
