package main

/*
#include "boundary.h"

// Go cannot call a C function pointer directly, so route the invocation
// through a static helper.
static void invoke_result_callback(rnn_result_callback cb, int length, const double* values) {
	cb(length, values);
}
*/
import "C"

import "unsafe"

// deliverResult hands an evaluation result to the caller's callback. The
// callback runs synchronously on the calling thread and must not retain the
// buffer pointer after it returns.
func deliverResult(cb unsafe.Pointer, out []float64) {
	if cb == nil {
		return
	}
	var values *C.double
	if len(out) > 0 {
		values = (*C.double)(unsafe.Pointer(&out[0]))
	}
	C.invoke_result_callback(C.rnn_result_callback(cb), C.int(len(out)), values)
}
