package core

import "fmt"

// UnknownTokenError reports a word or token id that is not present in a
// vocabulary (or is out of range for an embedding table). It indicates a
// preprocessing mismatch upstream and is never recovered from.
type UnknownTokenError struct {
	Word string // set when a word lookup failed
	ID   int    // set (>= 0) when an id lookup failed
}

func (e *UnknownTokenError) Error() string {
	if e.Word != "" {
		return fmt.Sprintf("unknown word %q", e.Word)
	}
	return fmt.Sprintf("unknown token id %d", e.ID)
}

// ShapeMismatchError reports a vector or tensor whose fixed size does not
// match what a component was constructed with. This is a configuration
// error (e.g. a checkpoint built with a different hidden size) and is fatal.
type ShapeMismatchError struct {
	Ctx  string // which value mismatched, e.g. "decoder state"
	Want Shape
	Got  Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: shape mismatch: want %v, got %v", e.Ctx, e.Want, e.Got)
}

// UnboundedDecodeError reports a self-fed decode loop that exhausted its
// step bound without producing EOS. The partial output is still usable;
// callers decide whether to keep the truncated translation.
type UnboundedDecodeError struct {
	Steps int // the bound that was reached
}

func (e *UnboundedDecodeError) Error() string {
	return fmt.Sprintf("decode exceeded %d steps without EOS", e.Steps)
}
