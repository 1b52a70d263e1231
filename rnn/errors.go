package rnn

import "errors"

var (
	// ErrConstruction rejects an invalid network description: a shape
	// descriptor shorter than two entries, non-positive item sizes or a
	// non-positive time depth.
	ErrConstruction = errors.New("rnn: invalid network description")

	// ErrShapeMismatch rejects a flat buffer whose length is inconsistent
	// with the network's derived sizes, or training aggregates implying
	// different pair counts.
	ErrShapeMismatch = errors.New("rnn: buffer size inconsistent with network shape")
)
