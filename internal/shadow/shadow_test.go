package shadow

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
)

func sampleHash() ContentHash {
	h, err := ParseContentHash(strings.Repeat("a", 64))
	if err != nil {
		panic(err)
	}
	return h
}

func TestRoundTrip(t *testing.T) {
	s := Shadow{ContentHash: sampleHash(), Size: 11}
	b := ToBytes(s)
	if string(b) != "sha256 "+strings.Repeat("a", 64)+"\nsize 11\n" {
		t.Fatalf("unexpected encoding: %q", b)
	}
	got, err := FromBytes(b)
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Errorf("round trip mismatch: %+v != %+v", got, s)
	}
}

func TestFromBytesRejects(t *testing.T) {
	h := strings.Repeat("a", 64)
	cases := []string{
		"sha256 " + h + "\nsize 123",         // missing trailing newline
		"sha256 " + h + "\r\nsize 123\r\n",   // CRLF
		"sha256 " + h + "\nsize \n",          // empty size
		"",
		"sha256 " + h[:10] + "\nsize 1\n", // truncated hash
	}
	for _, c := range cases {
		if _, err := FromBytes([]byte(c)); !errors.Is(err, bulkerr.ShadowSyntax) {
			t.Errorf("FromBytes(%q): expected ShadowSyntax, got %v", c, err)
		}
	}
}

func TestToBytesExactText(t *testing.T) {
	h := strings.Repeat("a", 64)
	hash, err := ParseContentHash(h)
	if err != nil {
		t.Fatal(err)
	}
	s := Shadow{ContentHash: hash, Size: 11}
	want := []byte("sha256 " + h + "\nsize 11\n")
	if !bytes.Equal(ToBytes(s), want) {
		t.Errorf("ToBytes mismatch")
	}
}
