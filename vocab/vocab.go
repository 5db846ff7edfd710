package vocab

import (
	"fmt"
	"strings"

	"github.com/djeday123/gomt/core"
)

// ============================================================================
// Token ID layout (shared by every Vocabulary instance):
//
//   0:   SOS   start of sequence
//   1:   EOS   end of sequence
//   2+:  words, assigned densely in order of first appearance
//
// The two reserved ids are fixed for the life of the vocabulary; encoder and
// decoder rely on EOS==1 for loop termination.
// ============================================================================

const (
	SOS = 0
	EOS = 1

	SOSWord = "SOS"
	EOSWord = "EOS"
)

// Vocabulary is a bidirectional token-id/word mapping.
type Vocabulary struct {
	words  []string       // id -> word
	ids    map[string]int // word -> id
	counts map[string]int // word -> occurrences seen via Add
}

// New creates a vocabulary holding only the reserved markers.
func New() *Vocabulary {
	v := &Vocabulary{
		words:  []string{SOSWord, EOSWord},
		ids:    map[string]int{SOSWord: SOS, EOSWord: EOS},
		counts: map[string]int{},
	}
	return v
}

// FromWords rebuilds a vocabulary from an ordered word list (checkpoint
// restore path). The first two entries must be the reserved markers.
func FromWords(words []string) (*Vocabulary, error) {
	if len(words) < 2 || words[SOS] != SOSWord || words[EOS] != EOSWord {
		return nil, fmt.Errorf("word list does not start with reserved %q, %q markers", SOSWord, EOSWord)
	}
	v := New()
	for _, w := range words[2:] {
		v.Add(w)
	}
	return v, nil
}

// Add registers a word and returns its id. Already-known words keep their
// original id; only the occurrence count changes.
func (v *Vocabulary) Add(word string) int {
	if id, ok := v.ids[word]; ok {
		v.counts[word]++
		return id
	}
	id := len(v.words)
	v.words = append(v.words, word)
	v.ids[word] = id
	v.counts[word] = 1
	return id
}

// AddSentence registers every whitespace-separated word of a sentence.
func (v *Vocabulary) AddSentence(sentence string) {
	for _, w := range strings.Fields(sentence) {
		v.Add(w)
	}
}

// ID maps a word to its token id.
func (v *Vocabulary) ID(word string) (int, error) {
	id, ok := v.ids[word]
	if !ok {
		return 0, &core.UnknownTokenError{Word: word, ID: -1}
	}
	return id, nil
}

// Word maps a token id back to its word.
func (v *Vocabulary) Word(id int) (string, error) {
	if id < 0 || id >= len(v.words) {
		return "", &core.UnknownTokenError{ID: id}
	}
	return v.words[id], nil
}

// Count returns how many times a word was seen via Add.
func (v *Vocabulary) Count(word string) int { return v.counts[word] }

// Size returns the number of ids, reserved markers included.
func (v *Vocabulary) Size() int { return len(v.words) }

// Words returns the ordered id -> word table (copy).
func (v *Vocabulary) Words() []string {
	out := make([]string, len(v.words))
	copy(out, v.words)
	return out
}

// Encode maps a whitespace-separated sentence to token ids. It does not
// append EOS; sequence termination is the caller's concern.
func (v *Vocabulary) Encode(sentence string) ([]int, error) {
	fields := strings.Fields(sentence)
	ids := make([]int, 0, len(fields))
	for _, w := range fields {
		id, err := v.ID(w)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Decode maps token ids back to words.
func (v *Vocabulary) Decode(ids []int) ([]string, error) {
	words := make([]string, 0, len(ids))
	for _, id := range ids {
		w, err := v.Word(id)
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, nil
}
