package main

import (
	"sync"

	"github.com/dragunovdenis/banalyzer-native/rnn"
)

// handleTable maps opaque integer tokens to live networks. Go pointers must
// not cross the C boundary, so callers hold tokens instead; 0 is the null
// handle and lookups on freed or unknown tokens fail closed.
type handleTable struct {
	mu      sync.RWMutex
	next    uintptr
	entries map[uintptr]*rnn.Network
}

func newHandleTable() *handleTable {
	return &handleTable{entries: make(map[uintptr]*rnn.Network)}
}

// put registers a network and returns its token, never 0.
func (t *handleTable) put(n *rnn.Network) uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.entries[t.next] = n
	return t.next
}

// get returns the network for a token, nil when absent.
func (t *handleTable) get(h uintptr) *rnn.Network {
	if h == 0 {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries[h]
}

// remove unregisters a token and returns the network it referenced, nil
// when the token was null or already removed.
func (t *handleTable) remove(h uintptr) *rnn.Network {
	if h == 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.entries[h]
	delete(t.entries, h)
	return n
}

var handles = newHandleTable()
