// Package gpu provides a WebGPU compute backend for the recurrent forward
// pass. All device work happens in float32.
package gpu

import (
	"fmt"
	"sync"

	"github.com/openfluke/webgpu/wgpu"
)

// Context holds the single WebGPU context for the process.
type Context struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	once     sync.Once
}

var ctx Context

// GetContext returns the singleton GPU context, initializing it on first
// use. Adapter selection tries high performance first, then low power, then
// whatever the platform offers.
func GetContext() (*Context, error) {
	var initErr error
	ctx.once.Do(func() {
		ctx.Instance = wgpu.CreateInstance(nil)
		if ctx.Instance == nil {
			initErr = fmt.Errorf("failed to create WebGPU instance")
			return
		}

		tryAdapter := func(opts *wgpu.RequestAdapterOptions) {
			if ctx.Adapter != nil {
				return
			}
			adapter, err := ctx.Instance.RequestAdapter(opts)
			if err == nil {
				ctx.Adapter = adapter
			}
		}
		tryAdapter(&wgpu.RequestAdapterOptions{PowerPreference: wgpu.PowerPreferenceHighPerformance})
		tryAdapter(&wgpu.RequestAdapterOptions{PowerPreference: wgpu.PowerPreferenceLowPower})
		tryAdapter(nil)
		if ctx.Adapter == nil {
			initErr = fmt.Errorf("no usable WebGPU adapter found")
			return
		}

		info := ctx.Adapter.GetInfo()
		fmt.Printf("Using GPU adapter: %s (Vendor: %s)\n", info.Name, info.VendorName)

		var err error
		ctx.Device, err = ctx.Adapter.RequestDevice(nil)
		if err != nil {
			initErr = err
			return
		}
		ctx.Queue = ctx.Device.GetQueue()
	})

	if initErr != nil {
		return nil, initErr
	}
	if ctx.Device == nil || ctx.Queue == nil {
		return nil, fmt.Errorf("WebGPU device or queue not initialized")
	}
	return &ctx, nil
}
