package vocab

import (
	"errors"
	"testing"

	"github.com/djeday123/gomt/core"
)

func TestReservedIDs(t *testing.T) {
	v := New()
	if v.Size() != 2 {
		t.Fatalf("fresh vocab size = %d, want 2", v.Size())
	}
	if id, _ := v.ID(SOSWord); id != SOS {
		t.Errorf("SOS id = %d, want %d", id, SOS)
	}
	if id, _ := v.ID(EOSWord); id != EOS {
		t.Errorf("EOS id = %d, want %d", id, EOS)
	}
}

func TestAddAssignsDenseIDs(t *testing.T) {
	v := New()
	if id := v.Add("hello"); id != 2 {
		t.Errorf("first word id = %d, want 2", id)
	}
	if id := v.Add("world"); id != 3 {
		t.Errorf("second word id = %d, want 3", id)
	}
	// Re-adding keeps the id but bumps the count.
	if id := v.Add("hello"); id != 2 {
		t.Errorf("re-added word id = %d, want 2", id)
	}
	if c := v.Count("hello"); c != 2 {
		t.Errorf("count = %d, want 2", c)
	}
	if v.Size() != 4 {
		t.Errorf("size = %d, want 4", v.Size())
	}
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	v := New()
	v.AddSentence("the cat sat on the mat")

	ids, err := v.Encode("the cat sat on the mat")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 6 {
		t.Fatalf("encoded %d ids, want 6", len(ids))
	}
	if ids[0] != ids[4] {
		t.Errorf("repeated word got different ids: %d vs %d", ids[0], ids[4])
	}

	words, err := v.Decode(ids)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"the", "cat", "sat", "on", "the", "mat"}
	for i, w := range want {
		if words[i] != w {
			t.Errorf("decoded[%d] = %q, want %q", i, words[i], w)
		}
	}
}

func TestUnknownWord(t *testing.T) {
	v := New()
	v.AddSentence("bonjour")

	_, err := v.Encode("bonjour inconnu")
	var unk *core.UnknownTokenError
	if !errors.As(err, &unk) {
		t.Fatalf("err = %v, want UnknownTokenError", err)
	}
	if unk.Word != "inconnu" {
		t.Errorf("unknown word = %q, want %q", unk.Word, "inconnu")
	}
}

func TestUnknownID(t *testing.T) {
	v := New()
	if _, err := v.Word(99); err == nil {
		t.Fatal("expected error for out-of-range id")
	}
	if _, err := v.Word(-1); err == nil {
		t.Fatal("expected error for negative id")
	}
}

func TestFromWords(t *testing.T) {
	v := New()
	v.AddSentence("je suis heureux")

	rebuilt, err := FromWords(v.Words())
	if err != nil {
		t.Fatal(err)
	}
	if rebuilt.Size() != v.Size() {
		t.Fatalf("rebuilt size = %d, want %d", rebuilt.Size(), v.Size())
	}
	for _, w := range v.Words() {
		a, _ := v.ID(w)
		b, err := rebuilt.ID(w)
		if err != nil || a != b {
			t.Errorf("word %q: rebuilt id %d (err %v), want %d", w, b, err, a)
		}
	}

	if _, err := FromWords([]string{"a", "b"}); err == nil {
		t.Error("expected error for word list without reserved markers")
	}
}
