// C boundary for the recurrent network engine. Networks are referenced by
// opaque integer handles; every operation reports failure through its return
// value and nothing ever propagates across the boundary as a panic.
package main

/*
#include <stdint.h>
#include <stdbool.h>
#include "boundary.h"
*/
import "C"

import (
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/dragunovdenis/banalyzer-native/nn"
	"github.com/dragunovdenis/banalyzer-native/rnn"
)

// boundaryLog keeps the shared library quiet unless an operation is rejected.
var boundaryLog = newBoundaryLogger()

func newBoundaryLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

// guard runs op and translates errors and panics into a boolean so that
// nothing escapes across the C boundary.
func guard(op string, fn func() error) bool {
	defer func() {
		if r := recover(); r != nil {
			boundaryLog.WithFields(logrus.Fields{"op": op, "panic": r}).Error("recovered at boundary")
		}
	}()
	if err := fn(); err != nil {
		boundaryLog.WithField("op", op).WithError(err).Warn("operation rejected")
		return false
	}
	return true
}

//export RnnConstruct
func RnnConstruct(timeDepth C.int, layerSizesCount C.int, layerSizes *C.int) C.uintptr_t {
	if layerSizesCount < 0 || (layerSizes == nil && layerSizesCount > 0) {
		return 0
	}

	// Convert C array to Go slice
	sizes := make([]int, int(layerSizesCount))
	if layerSizesCount > 0 {
		sizeSlice := (*[1 << 30]C.int)(unsafe.Pointer(layerSizes))[:layerSizesCount:layerSizesCount]
		for i, v := range sizeSlice {
			sizes[i] = int(v)
		}
	}

	var h uintptr
	ok := guard("construct", func() error {
		network, err := rnn.New(int(timeDepth), sizes, boundaryLog)
		if err != nil {
			return err
		}
		h = handles.put(network)
		return nil
	})
	if !ok {
		return 0
	}
	return C.uintptr_t(h)
}

//export RnnFree
func RnnFree(handle C.uintptr_t) C.bool {
	network := handles.remove(uintptr(handle))
	if network == nil {
		return C.bool(false)
	}
	ok := guard("free", func() error {
		network.Close()
		return nil
	})
	return C.bool(ok)
}

//export RnnGetInputItemSize
func RnnGetInputItemSize(handle C.uintptr_t) C.int {
	network := handles.get(uintptr(handle))
	if network == nil {
		return -1
	}
	return C.int(network.InputItemSize())
}

//export RnnGetOutputItemSize
func RnnGetOutputItemSize(handle C.uintptr_t) C.int {
	network := handles.get(uintptr(handle))
	if network == nil {
		return -1
	}
	return C.int(network.OutputItemSize())
}

//export RnnGetLayerCount
func RnnGetLayerCount(handle C.uintptr_t) C.int {
	network := handles.get(uintptr(handle))
	if network == nil {
		return -1
	}
	return C.int(network.LayerCount())
}

//export RnnGetDepth
func RnnGetDepth(handle C.uintptr_t) C.int {
	network := handles.get(uintptr(handle))
	if network == nil {
		return -1
	}
	return C.int(network.TimeDepth())
}

//export RnnEvaluate
func RnnEvaluate(handle C.uintptr_t, size C.int, input *C.double, callback C.rnn_result_callback) C.bool {
	network := handles.get(uintptr(handle))
	if network == nil || callback == nil || size < 0 || (input == nil && size > 0) {
		return C.bool(false)
	}

	// Convert C array to Go slice
	goInput := make([]float64, int(size))
	if size > 0 {
		inSlice := (*[1 << 30]float64)(unsafe.Pointer(input))[:size:size]
		copy(goInput, inSlice)
	}

	var out []float64
	ok := guard("evaluate", func() error {
		result, err := network.Evaluate(goInput)
		if err != nil {
			return err
		}
		out = result
		return nil
	})
	if !ok {
		return C.bool(false)
	}

	// The callback fires at most once and only after a successful pass.
	deliverResult(unsafe.Pointer(callback), out)
	return C.bool(true)
}

//export RnnBatchTrain
func RnnBatchTrain(handle C.uintptr_t, inputAggregateSize C.int, inputAggregate *C.double,
	referenceAggregateSize C.int, referenceAggregate *C.double, learningRate C.double) C.bool {
	network := handles.get(uintptr(handle))
	if network == nil || inputAggregateSize < 0 || referenceAggregateSize < 0 {
		return C.bool(false)
	}
	if (inputAggregate == nil && inputAggregateSize > 0) ||
		(referenceAggregate == nil && referenceAggregateSize > 0) {
		return C.bool(false)
	}

	// Convert C arrays to Go slices
	goInputs := make([]float64, int(inputAggregateSize))
	if inputAggregateSize > 0 {
		inSlice := (*[1 << 30]float64)(unsafe.Pointer(inputAggregate))[:inputAggregateSize:inputAggregateSize]
		copy(goInputs, inSlice)
	}
	goRefs := make([]float64, int(referenceAggregateSize))
	if referenceAggregateSize > 0 {
		refSlice := (*[1 << 30]float64)(unsafe.Pointer(referenceAggregate))[:referenceAggregateSize:referenceAggregateSize]
		copy(goRefs, refSlice)
	}

	ok := guard("batch_train", func() error {
		return network.Train(goInputs, goRefs, float64(learningRate))
	})
	return C.bool(ok)
}

//export IsSinglePrecision
func IsSinglePrecision() C.bool {
	return C.bool(nn.SinglePrecision)
}

func main() {}
