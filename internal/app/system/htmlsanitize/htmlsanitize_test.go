package htmlsanitize

import "testing"

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "crack in slab near column B4", "crack in slab near column B4"},
		{"formatting stripped", "<b>crack</b> in <i>slab</i>", "crack in slab"},
		{"script dropped", "<script>alert(1)</script>rebar exposed", "rebar exposed"},
		{"event handler dropped", `<img src=x onerror="alert(1)">photo`, "photo"},
		{"entities decoded", "walls &amp; floors", "walls & floors"},
		{"ampersand kept", "walls & floors", "walls & floors"},
		{"trimmed", "  <p>ok</p>  ", "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
