package textutil

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"My Video", "My_Video"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"Tiếng Việt", "Tieng_Viet"},
		{"Café déjà vu", "Cafe_deja_vu"},
		{"đường", "_uong"},
		{"日本語のビデオ", "_"},
		{"clip 日本 end", "clip___end"},
		{"already_safe-name.v2", "already_safe-name.v2"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFileNameTruncates(t *testing.T) {
	got := SanitizeFileName(strings.Repeat("ab ", 60))
	if len(got) != MaxFileNameLength {
		t.Fatalf("expected %d bytes, got %d", MaxFileNameLength, len(got))
	}
	if strings.ContainsAny(got, " ") {
		t.Fatalf("expected spaces to be replaced, got %q", got)
	}
}
