package gpu

import (
	"fmt"

	"github.com/openfluke/webgpu/wgpu"
)

// Activation selects the WGSL nonlinearity compiled into a kernel.
type Activation int

const (
	ActSigmoid Activation = iota
	ActTanh
	ActReLU
	ActLinear
)

func (a Activation) wgsl() string {
	switch a {
	case ActSigmoid:
		return "1.0 / (1.0 + exp(-sum))"
	case ActTanh:
		return "tanh(sum)"
	case ActReLU:
		return "max(sum, 0.0)"
	default:
		return "sum"
	}
}

// RecurrentSpec configures one recurrent layer kernel. Weight slices are
// row-major: WIn is HiddenSize×InputSize, WRec is HiddenSize×HiddenSize.
type RecurrentSpec struct {
	InputSize  int
	HiddenSize int
	Steps      int
	Activation Activation
	WIn        []float32
	WRec       []float32
	Bias       []float32
}

// Recurrent holds the compiled pipeline and device buffers for one layer.
// The hidden-state dependency makes timesteps sequential, so the kernel
// processes one step per dispatch with units parallel within the step.
type Recurrent struct {
	Spec  RecurrentSpec
	label string

	pipeline   *wgpu.ComputePipeline
	bindGroups []*wgpu.BindGroup // one per timestep

	inputBuffer  *wgpu.Buffer // [Steps * InputSize]
	outputBuffer *wgpu.Buffer // [Steps * HiddenSize]
	hiddenBuffer *wgpu.Buffer // [HiddenSize]
	stepBuffers  []*wgpu.Buffer
	wInBuffer    *wgpu.Buffer
	wRecBuffer   *wgpu.Buffer
	biasBuffer   *wgpu.Buffer

	zeroHidden []float32
}

// NewRecurrent allocates buffers, compiles the kernel and prepares one bind
// group per timestep.
func NewRecurrent(spec RecurrentSpec, label string) (*Recurrent, error) {
	if spec.InputSize < 1 || spec.HiddenSize < 1 || spec.Steps < 1 {
		return nil, fmt.Errorf("invalid recurrent spec %dx%d over %d steps", spec.InputSize, spec.HiddenSize, spec.Steps)
	}
	if len(spec.WIn) != spec.HiddenSize*spec.InputSize ||
		len(spec.WRec) != spec.HiddenSize*spec.HiddenSize ||
		len(spec.Bias) != spec.HiddenSize {
		return nil, fmt.Errorf("weight slice sizes do not match spec %dx%d", spec.InputSize, spec.HiddenSize)
	}

	c, err := GetContext()
	if err != nil {
		return nil, err
	}

	r := &Recurrent{
		Spec:       spec,
		label:      label,
		zeroHidden: make([]float32, spec.HiddenSize),
	}
	if err := r.allocate(c); err != nil {
		r.Cleanup()
		return nil, err
	}
	if err := r.compile(c); err != nil {
		r.Cleanup()
		return nil, err
	}
	if err := r.bind(c); err != nil {
		r.Cleanup()
		return nil, err
	}
	return r, nil
}

func (r *Recurrent) allocate(c *Context) error {
	var err error

	r.inputBuffer, err = c.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: r.label + "_In",
		Size:  uint64(r.Spec.Steps * r.Spec.InputSize * 4),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return err
	}

	r.outputBuffer, err = c.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: r.label + "_Out",
		Size:  uint64(r.Spec.Steps * r.Spec.HiddenSize * 4),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return err
	}

	r.hiddenBuffer, err = c.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: r.label + "_Hidden",
		Size:  uint64(r.Spec.HiddenSize * 4),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return err
	}

	r.wInBuffer, err = NewFloatBuffer(r.Spec.WIn, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	r.wRecBuffer, err = NewFloatBuffer(r.Spec.WRec, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	r.biasBuffer, err = NewFloatBuffer(r.Spec.Bias, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	if err != nil {
		return err
	}

	r.stepBuffers = make([]*wgpu.Buffer, r.Spec.Steps)
	for step := 0; step < r.Spec.Steps; step++ {
		r.stepBuffers[step], err = c.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("%s_Step%d", r.label, step),
			Size:  4, // u32
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		c.Queue.WriteBuffer(r.stepBuffers[step], 0, wgpu.ToBytes([]uint32{uint32(step)}))
	}
	return nil
}

func (r *Recurrent) shader() string {
	return fmt.Sprintf(`
		@group(0) @binding(0) var<storage, read> input : array<f32>;
		@group(0) @binding(1) var<storage, read> w_in : array<f32>;
		@group(0) @binding(2) var<storage, read> w_rec : array<f32>;
		@group(0) @binding(3) var<storage, read> bias : array<f32>;
		@group(0) @binding(4) var<storage, read_write> hidden : array<f32>;
		@group(0) @binding(5) var<storage, read_write> output : array<f32>;
		@group(0) @binding(6) var<uniform> step : u32;

		const INPUT_SIZE: u32 = %du;
		const HIDDEN_SIZE: u32 = %du;

		@compute @workgroup_size(256)
		fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
			let h_idx = gid.x;
			if (h_idx >= HIDDEN_SIZE) { return; }

			let input_offset = step * INPUT_SIZE;

			var sum: f32 = bias[h_idx];
			for (var i: u32 = 0u; i < INPUT_SIZE; i++) {
				sum += input[input_offset + i] * w_in[h_idx * INPUT_SIZE + i];
			}
			for (var i: u32 = 0u; i < HIDDEN_SIZE; i++) {
				sum += hidden[i] * w_rec[h_idx * HIDDEN_SIZE + i];
			}

			let h_val = %s;

			hidden[h_idx] = h_val;
			output[step * HIDDEN_SIZE + h_idx] = h_val;
		}
	`, r.Spec.InputSize, r.Spec.HiddenSize, r.Spec.Activation.wgsl())
}

func (r *Recurrent) compile(c *Context) error {
	mod, err := c.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          r.label + "_Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: r.shader()},
	})
	if err != nil {
		return err
	}
	r.pipeline, err = c.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   r.label + "_Pipe",
		Compute: wgpu.ProgrammableStageDescriptor{Module: mod, EntryPoint: "main"},
	})
	return err
}

func (r *Recurrent) bind(c *Context) error {
	r.bindGroups = make([]*wgpu.BindGroup, r.Spec.Steps)
	var err error
	for step := 0; step < r.Spec.Steps; step++ {
		r.bindGroups[step], err = c.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  fmt.Sprintf("%s_Bind%d", r.label, step),
			Layout: r.pipeline.GetBindGroupLayout(0),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: r.inputBuffer, Size: r.inputBuffer.GetSize()},
				{Binding: 1, Buffer: r.wInBuffer, Size: r.wInBuffer.GetSize()},
				{Binding: 2, Buffer: r.wRecBuffer, Size: r.wRecBuffer.GetSize()},
				{Binding: 3, Buffer: r.biasBuffer, Size: r.biasBuffer.GetSize()},
				{Binding: 4, Buffer: r.hiddenBuffer, Size: r.hiddenBuffer.GetSize()},
				{Binding: 5, Buffer: r.outputBuffer, Size: r.outputBuffer.GetSize()},
				{Binding: 6, Buffer: r.stepBuffers[step], Size: 4},
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Forward uploads one input sequence, zeroes the hidden state, dispatches
// the kernel once per timestep and reads back the full output sequence.
func (r *Recurrent) Forward(input []float32) ([]float32, error) {
	if len(input) != r.Spec.Steps*r.Spec.InputSize {
		return nil, fmt.Errorf("input holds %d values, want %d", len(input), r.Spec.Steps*r.Spec.InputSize)
	}
	c, err := GetContext()
	if err != nil {
		return nil, err
	}

	c.Queue.WriteBuffer(r.inputBuffer, 0, wgpu.ToBytes(input))
	c.Queue.WriteBuffer(r.hiddenBuffer, 0, wgpu.ToBytes(r.zeroHidden))

	encoder, err := c.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	pass := encoder.BeginComputePass(nil)
	wg := uint32((r.Spec.HiddenSize + 255) / 256)
	for step := 0; step < r.Spec.Steps; step++ {
		pass.SetPipeline(r.pipeline)
		pass.SetBindGroup(0, r.bindGroups[step], nil)
		pass.DispatchWorkgroups(wg, 1, 1)
	}
	pass.End()
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, err
	}
	c.Queue.Submit(cmd)

	return ReadBuffer(r.outputBuffer, r.Spec.Steps*r.Spec.HiddenSize)
}

// UpdateWeights refreshes the device copies after a CPU learning step.
func (r *Recurrent) UpdateWeights(wIn, wRec, bias []float32) {
	c, err := GetContext()
	if err != nil {
		return
	}
	if len(wIn) == len(r.Spec.WIn) {
		r.Spec.WIn = wIn
		c.Queue.WriteBuffer(r.wInBuffer, 0, wgpu.ToBytes(wIn))
	}
	if len(wRec) == len(r.Spec.WRec) {
		r.Spec.WRec = wRec
		c.Queue.WriteBuffer(r.wRecBuffer, 0, wgpu.ToBytes(wRec))
	}
	if len(bias) == len(r.Spec.Bias) {
		r.Spec.Bias = bias
		c.Queue.WriteBuffer(r.biasBuffer, 0, wgpu.ToBytes(bias))
	}
}

// Cleanup releases every device resource the layer holds.
func (r *Recurrent) Cleanup() {
	bufs := []*wgpu.Buffer{r.inputBuffer, r.outputBuffer, r.hiddenBuffer, r.wInBuffer, r.wRecBuffer, r.biasBuffer}
	for _, b := range bufs {
		if b != nil {
			b.Destroy()
		}
	}
	for _, b := range r.stepBuffers {
		if b != nil {
			b.Destroy()
		}
	}
	for _, bg := range r.bindGroups {
		if bg != nil {
			bg.Release()
		}
	}
	if r.pipeline != nil {
		r.pipeline.Release()
	}
}
