package main

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/dragunovdenis/banalyzer-native/rnn"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestNetwork(t *testing.T) *rnn.Network {
	t.Helper()
	network, err := rnn.New(2, []int{3, 4}, quietLogger())
	if err != nil {
		t.Fatalf("failed to build network: %v", err)
	}
	return network
}

// TestHandleTableNeverIssuesZero checks that the null handle stays reserved.
func TestHandleTableNeverIssuesZero(t *testing.T) {
	table := newHandleTable()
	for i := 0; i < 5; i++ {
		if h := table.put(newTestNetwork(t)); h == 0 {
			t.Errorf("expected non-zero handle, got 0 on insert %d", i)
		}
	}
}

// TestHandleTableLookup checks put, get and remove round trips.
func TestHandleTableLookup(t *testing.T) {
	table := newHandleTable()
	network := newTestNetwork(t)
	h := table.put(network)

	if got := table.get(h); got != network {
		t.Errorf("expected the registered network, got %v", got)
	}
	if got := table.get(0); got != nil {
		t.Errorf("expected nil for the null handle, got %v", got)
	}
	if got := table.get(h + 100); got != nil {
		t.Errorf("expected nil for an unknown handle, got %v", got)
	}

	if got := table.remove(h); got != network {
		t.Errorf("expected remove to return the network, got %v", got)
	}
	if got := table.get(h); got != nil {
		t.Errorf("expected nil after removal, got %v", got)
	}
	if got := table.remove(h); got != nil {
		t.Errorf("expected second removal to return nil, got %v", got)
	}
}

// TestGuardTranslatesErrors checks that guard converts errors to false.
func TestGuardTranslatesErrors(t *testing.T) {
	boundaryLog.SetOutput(io.Discard)
	if !guard("ok", func() error { return nil }) {
		t.Error("expected true for a clean operation")
	}
	if guard("err", func() error { return errors.New("boom") }) {
		t.Error("expected false for a failing operation")
	}
}

// TestGuardRecoversPanics checks that panics never escape the boundary.
func TestGuardRecoversPanics(t *testing.T) {
	boundaryLog.SetOutput(io.Discard)
	if guard("panic", func() error { panic("boom") }) {
		t.Error("expected false for a panicking operation")
	}
}
