package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
)

// Slice, et al., after:
// https://betterprogramming.pub/writing-a-stream-api-in-go-afbc3c4350e2

func Slice[T any](ctx context.Context, in []T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for _, element := range in {
			select {
			case <-ctx.Done():
				return
			case out <- element:
			}
		}
	}()
	return out
}

// NDJSON decodes a stream of JSON values into T.
// Values that fail to decode are passed to onErr, if non-nil, and skipped;
// a syntax error ends the stream, since the decoder cannot resync.
func NDJSON[T any](ctx context.Context, in io.Reader, onErr func(error)) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		dec := json.NewDecoder(in)
		for {
			var element T
			if err := dec.Decode(&element); err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				if onErr != nil {
					onErr(err)
				}
				var syntax *json.SyntaxError
				if errors.As(err, &syntax) || errors.Is(err, io.ErrUnexpectedEOF) {
					return
				}
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- element:
			}
		}
	}()
	return out
}

func Filter[T any](ctx context.Context, predicate func(T) bool, in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for element := range in {
			if !predicate(element) {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- element:
			}
		}
	}()
	return out
}

func Transform[I any, O any](ctx context.Context, transformer func(I) O, in <-chan I) <-chan O {
	out := make(chan O)
	go func() {
		defer close(out)
		for element := range in {
			select {
			case <-ctx.Done():
				return
			case out <- transformer(element):
			}
		}
	}()
	return out
}

// Collect drains in into a slice. It returns early, with what it has, when ctx is done.
func Collect[T any](ctx context.Context, in <-chan T) []T {
	out := make([]T, 0)
	for {
		select {
		case <-ctx.Done():
			return out
		case element, ok := <-in:
			if !ok {
				return out
			}
			out = append(out, element)
		}
	}
}

// WriteNDJSON encodes every element of in to w, one per line, until in closes.
// The first encoding error is returned; the rest of in is drained.
func WriteNDJSON[T any](w io.Writer, in <-chan T) error {
	enc := json.NewEncoder(w)
	var first error
	for element := range in {
		if first != nil {
			continue
		}
		first = enc.Encode(element)
	}
	return first
}
