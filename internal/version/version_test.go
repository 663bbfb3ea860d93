package version

import (
	"strings"
	"testing"
)

func TestInfoDefaults(t *testing.T) {
	v, c, d := Info()
	if v == "" || c == "" || d == "" {
		t.Fatalf("сведения о сборке не должны быть пустыми: v=%q c=%q d=%q", v, c, d)
	}
}

func TestStringCarriesAllFields(t *testing.T) {
	s := String()

	v, c, d := Info()
	for _, part := range []string{"version=" + v, "commit=" + c, "date=" + d} {
		if !strings.Contains(s, part) {
			t.Errorf("строка %q не содержит %q", s, part)
		}
	}
}
