package quickjsruntime

import "testing"

func TestNewScript(t *testing.T) {
	s := NewScript("app/main.js", "1 + 1")
	if s.Path() != "app/main.js" {
		t.Fatalf("Path = %q", s.Path())
	}
	if s.Code() != "1 + 1" {
		t.Fatalf("Code = %q", s.Code())
	}
}
