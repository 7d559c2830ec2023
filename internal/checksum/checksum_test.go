package checksum

import "testing"

func TestSum(t *testing.T) {
	got := Sum([]byte("relations: []\n"))
	if len(got) != 64 {
		t.Fatalf("digest length = %d, want 64", len(got))
	}
	if Sum([]byte("relations: []\n")) != got {
		t.Error("digest is not stable")
	}
	if Sum([]byte("relations: [ ]\n")) == got {
		t.Error("different content produced the same digest")
	}
}

func TestShort(t *testing.T) {
	if got := Short("0123456789abcdef"); got != "0123456789ab" {
		t.Errorf("Short = %q", got)
	}
	if got := Short("abc"); got != "abc" {
		t.Errorf("Short of short input = %q", got)
	}
}
