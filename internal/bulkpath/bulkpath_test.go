package bulkpath

import (
	"errors"
	"testing"

	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
)

func TestParseComponentRejects(t *testing.T) {
	for _, s := range []string{"", ".", "..", "x/y", "x\x00y"} {
		if _, err := ParseComponent(s); !errors.Is(err, bulkerr.PathSyntax) {
			t.Errorf("ParseComponent(%q): expected PathSyntax, got %v", s, err)
		}
	}
}

func TestParseComponentAccepts(t *testing.T) {
	for _, s := range []string{"a", "abc", "0", "0_x", ".hidden"} {
		c, err := ParseComponent(s)
		if err != nil {
			t.Fatalf("ParseComponent(%q): unexpected error %v", s, err)
		}
		if string(c) != s {
			t.Errorf("ParseComponent(%q) = %q", s, c)
		}
	}
}

func TestParsePathRoundTrip(t *testing.T) {
	for _, s := range []string{"", "abc", "x/y"} {
		p, err := ParsePath(s)
		if err != nil {
			t.Fatalf("ParsePath(%q): %v", s, err)
		}
		if got := p.String(); got != s {
			t.Errorf("ParsePath(%q).String() = %q", s, got)
		}
	}
}

func TestEncodePathWithMarker(t *testing.T) {
	p, err := ParsePath("x/y")
	if err != nil {
		t.Fatal(err)
	}
	if got := EncodePath(p); got != "0_x/0_y" {
		t.Errorf("EncodePath = %q, want 0_x/0_y", got)
	}
	if got := EncodePathWithMarker(p); got != "0_x/0_y/0" {
		t.Errorf("EncodePathWithMarker = %q, want 0_x/0_y/0", got)
	}
}

func TestDecodeEntryRoundTrip(t *testing.T) {
	c, _ := ParseComponent("abc")
	e := ChildEntry(c)
	decoded, err := DecodeEntry(e.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Kind != Child || decoded.Component != c {
		t.Errorf("round trip mismatch: %+v", decoded)
	}

	marker, err := DecodeEntry("0")
	if err != nil {
		t.Fatal(err)
	}
	if !marker.IsMarker() {
		t.Errorf("decode(%q) should be Marker", "0")
	}
}

func TestDecodeEntryRejects(t *testing.T) {
	for _, s := range []string{"xy", "", "0_.", "0_..", "0_a/b"} {
		if _, err := DecodeEntry(s); !errors.Is(err, bulkerr.EntryName) {
			t.Errorf("DecodeEntry(%q): expected EntryName error, got %v", s, err)
		}
	}
}

func TestPathOrdering(t *testing.T) {
	a, _ := ParsePath("a")
	b, _ := ParsePath("b")
	ab, _ := ParsePath("a/b")
	if !a.Less(b) {
		t.Errorf("a should be less than b")
	}
	if !a.Less(ab) {
		t.Errorf("a should be less than a/b")
	}
	if !ab.HasPrefix(a) {
		t.Errorf("a/b should have prefix a")
	}
}
