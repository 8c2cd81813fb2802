package scan

import (
	"path/filepath"
	"testing"
)

func TestExcludeFilterRelativePatterns(t *testing.T) {
	base := "/home/user/project"
	filter, err := NewExcludeFilter(base, []string{"build/*", "*.log"})
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		path string
		want bool
	}{
		{filepath.Join(base, "build", "out.bin"), true},
		{filepath.Join(base, "src", "main.go"), false},
		{filepath.Join(base, "debug.log"), true},
		{filepath.Join(base, "src", "trace.log"), true}, // base-name match at any depth
	}
	for _, tc := range cases {
		if got := filter.Match(tc.path); got != tc.want {
			t.Errorf("Match(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestExcludeFilterEmptyAndNil(t *testing.T) {
	filter, err := NewExcludeFilter("/tmp", nil)
	if err != nil {
		t.Fatal(err)
	}
	if filter.Match("/tmp/anything") {
		t.Error("empty filter must match nothing")
	}

	var nilFilter *ExcludeFilter
	if nilFilter.Match("/tmp/anything") {
		t.Error("nil filter must match nothing")
	}
}

func TestExcludeFilterBadPattern(t *testing.T) {
	if _, err := NewExcludeFilter("/tmp", []string{"[unclosed"}); err == nil {
		t.Error("malformed pattern should be rejected")
	}
}
