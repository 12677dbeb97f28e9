package nn

import (
	"fmt"
	"sync"

	"kestrel/internal/chess"
	"kestrel/internal/logging"

	ort "github.com/yalue/onnxruntime_go"
)

// NumPlanes is the flattened input-tensor depth: 8 history steps * 13
// planes, plus the 8 aux planes at step 0, exactly spec.md §6's
// encoding.
const NumPlanes = 8*13 + 8

// MaxBatchSize bounds the persistent tensors ONNXEvaluator
// pre-allocates, sizing tensors once at construction rather than per
// call.
const MaxBatchSize = 512

// ONNXEvaluator wraps github.com/yalue/onnxruntime_go: a provider
// fallback chain, persistent tensors, and a warmup run at
// construction. Unlike QueuedEvaluator, which assembles a
// time-windowed micro-batch itself, EvaluateBatch here takes an
// already-built batch — search.BatchBuilder is the one deciding what
// goes into a call — so there is no internal queue or timeout; one
// EvaluateBatch call is one session.Run().
type ONNXEvaluator struct {
	mu      sync.Mutex // serializes EvaluateBatch over the shared tensors
	session *ort.AdvancedSession

	input   []float32
	policy  []float32
	value   []float32
	inputs  []ort.Value
	outputs []ort.Value
}

// ProviderSetup configures one execution provider attempt;
// NewONNXEvaluator tries each in order and keeps the first that
// succeeds.
type ProviderSetup struct {
	Name  string
	Setup func(*ort.SessionOptions) error
}

// DefaultProviders returns the TensorRT -> CUDA -> DirectML -> CPU
// fallback chain, trying the fastest execution provider first and
// falling back to plain CPU if nothing else is available.
func DefaultProviders() []ProviderSetup {
	return []ProviderSetup{
		{"TensorRT", func(so *ort.SessionOptions) error {
			opts, err := ort.NewTensorRTProviderOptions()
			if err != nil {
				return err
			}
			defer opts.Destroy()
			return so.AppendExecutionProviderTensorRT(opts)
		}},
		{"CUDA", func(so *ort.SessionOptions) error {
			opts, err := ort.NewCUDAProviderOptions()
			if err != nil {
				return err
			}
			defer opts.Destroy()
			return so.AppendExecutionProviderCUDA(opts)
		}},
		{"DirectML", func(so *ort.SessionOptions) error {
			return so.AppendExecutionProviderDirectML(0)
		}},
		{"CPU", func(so *ort.SessionOptions) error { return nil }},
	}
}

// NewONNXEvaluator loads modelPath, trying libPath as the shared
// onnxruntime library if the environment is not already initialized.
func NewONNXEvaluator(modelPath, libPath string, providers []ProviderSetup) (*ONNXEvaluator, error) {
	if !ort.IsInitialized() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("nn: initialize onnxruntime: %w", err)
		}
	}

	input := make([]float32, MaxBatchSize*NumPlanes*64)
	policy := make([]float32, MaxBatchSize*chess.PolicySize)
	value := make([]float32, MaxBatchSize)

	inputShape := ort.NewShape(MaxBatchSize, NumPlanes, 8, 8)
	policyShape := ort.NewShape(MaxBatchSize, chess.PolicySize)
	valueShape := ort.NewShape(MaxBatchSize, 1)

	inputTensor, err := ort.NewTensor(inputShape, input)
	if err != nil {
		return nil, fmt.Errorf("nn: create input tensor: %w", err)
	}
	policyTensor, err := ort.NewTensor(policyShape, policy)
	if err != nil {
		return nil, fmt.Errorf("nn: create policy tensor: %w", err)
	}
	valueTensor, err := ort.NewTensor(valueShape, value)
	if err != nil {
		return nil, fmt.Errorf("nn: create value tensor: %w", err)
	}

	inputs := []ort.Value{inputTensor}
	outputs := []ort.Value{policyTensor, valueTensor}
	inputNames := []string{"input"}
	outputNames := []string{"policy", "value"}

	var session *ort.AdvancedSession
	for _, p := range providers {
		so, err := ort.NewSessionOptions()
		if err != nil {
			continue
		}
		if err := p.Setup(so); err != nil {
			logging.Logger.Debug().Str("provider", p.Name).Err(err).Msg("nn: provider setup failed")
			so.Destroy()
			continue
		}
		s, err := ort.NewAdvancedSession(modelPath, inputNames, outputNames, inputs, outputs, so)
		if err != nil {
			logging.Logger.Debug().Str("provider", p.Name).Err(err).Msg("nn: session creation failed")
			so.Destroy()
			continue
		}
		if err := s.Run(); err != nil {
			logging.Logger.Debug().Str("provider", p.Name).Err(err).Msg("nn: warmup run failed")
			s.Destroy()
			so.Destroy()
			continue
		}
		logging.Logger.Info().Str("provider", p.Name).Msg("nn: session initialized")
		session = s
		so.Destroy()
		break
	}
	if session == nil {
		return nil, fmt.Errorf("nn: failed to initialize with any execution provider")
	}

	return &ONNXEvaluator{
		session: session,
		input:   input,
		policy:  policy,
		value:   value,
		inputs:  inputs,
		outputs: outputs,
	}, nil
}

func (e *ONNXEvaluator) Close() {
	if e.session != nil {
		e.session.Destroy()
	}
	for _, v := range e.inputs {
		v.Destroy()
	}
	for _, v := range e.outputs {
		v.Destroy()
	}
}

// EvaluateBatch fills the pre-allocated tensors for len(inputs) leaves,
// runs one inference, and returns one Result per leaf.
func (e *ONNXEvaluator) EvaluateBatch(inputs []Input) ([]Result, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	if len(inputs) > MaxBatchSize {
		return nil, fmt.Errorf("nn: batch of %d exceeds MaxBatchSize %d", len(inputs), MaxBatchSize)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i, in := range inputs {
		fillTensorSlot(e.input, i, &in.Planes)
	}
	clearTensorTail(e.input, len(inputs))

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("nn: session run: %w", err)
	}

	results := make([]Result, len(inputs))
	for i := range inputs {
		results[i].Q = e.value[i]
		copy(results[i].P[:], e.policy[i*chess.PolicySize:(i+1)*chess.PolicySize])
	}
	return results, nil
}

func fillTensorSlot(dst []float32, slot int, planes *chess.InputPlanes) {
	offset := slot * NumPlanes * 64
	planeIdx := 0
	for h := 0; h < 8; h++ {
		for p := 0; p < 13; p++ {
			copy(dst[offset+planeIdx*64:offset+planeIdx*64+64], planes.History[h][p][:])
			planeIdx++
		}
	}
	for a := 0; a < 8; a++ {
		copy(dst[offset+planeIdx*64:offset+planeIdx*64+64], planes.Aux[a][:])
		planeIdx++
	}
}

func clearTensorTail(dst []float32, filled int) {
	tailStart := filled * NumPlanes * 64
	for i := tailStart; i < len(dst); i++ {
		dst[i] = 0
	}
}
