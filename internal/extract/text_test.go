package extract

import "testing"

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Paris is the capital   of France.", "Paris is the capital of France."},
		{"entities", "Fish &amp; chips &ndash; a dish", "Fish & chips – a dish"},
		{"inline markup", "<b>Paris</b>, France", "Paris, France"},
		{"block markup", "<p>First</p><p>Second</p>", "First Second"},
		{"script skipped", "Visible<script>alert(1)</script> text", "Visible text"},
		{"line breaks", "one<br>two\n\nthree", "one two three"},
		{"bare ampersand", "R&D spending", "R&D spending"},
		{"markup and entity", "<b>Paris</b> &amp; the Seine", "Paris & the Seine"},
		{"whole page", "<!DOCTYPE html><html><head><title>Paris</title><style>p{}</style></head><body><p>Capital of <i>France</i>.</p><script>x()</script></body></html>", "Paris Capital of France."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
