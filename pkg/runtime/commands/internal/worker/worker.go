// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package worker serializes calls into a dedicated owning goroutine, for
// wrapping a library handle (an FST reader, a speller) that the original
// runtime treats as !Send and confines to one OS thread for its lifetime.
// It is grounded on original_source's modules/divvun/blanktag.rs and
// modules/spell.rs, both of which spawn one std::thread owning the
// transducer and pass work across it with a pair of size-1 mpsc
// channels; here an unbuffered (synchronous-handoff) request channel,
// answered on a per-call response channel of size 1, plays the same role.
package worker

import "context"

type request struct {
	input string
	resp  chan response
}

type response struct {
	output string
	err    error
}

// Worker owns a single goroutine running fn; every Call is handled in
// that goroutine, one at a time, in submission order.
type Worker struct {
	reqs chan request
}

// Spawn starts the owning goroutine. fn is called once per Call, never
// concurrently with itself.
func Spawn(fn func(input string) (string, error)) *Worker {
	w := &Worker{reqs: make(chan request)}
	go func() {
		for req := range w.reqs {
			out, err := fn(req.input)
			req.resp <- response{output: out, err: err}
		}
	}()
	return w
}

// Call hands input to the owning goroutine and waits for its result,
// honoring ctx cancellation while waiting.
func (w *Worker) Call(ctx context.Context, input string) (string, error) {
	resp := make(chan response, 1)
	select {
	case w.reqs <- request{input: input, resp: resp}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case r := <-resp:
		return r.output, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
