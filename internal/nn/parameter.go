package nn

import (
	"fmt"

	"github.com/quiver-ml/quiver/internal/tensor"
)

// Parameter is a named model parameter (a weight or bias tensor).
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
}

// NewParameter creates a parameter wrapping an initialized tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Load copies values from a raw tensor into the parameter in place.
// The shapes must match exactly.
func (p *Parameter[B]) Load(raw *tensor.RawTensor) error {
	if !p.tensor.Shape().Equal(raw.Shape()) {
		return fmt.Errorf("parameter %q: shape mismatch: have %v, loading %v",
			p.name, p.tensor.Shape(), raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("parameter %q: dtype mismatch: loading %s", p.name, raw.DType())
	}
	copy(p.tensor.Data(), raw.AsFloat32())
	return nil
}

// loadAll copies every listed parameter from the state dictionary.
// Shared by the LoadStateDict implementations of concrete modules.
func loadAll[B tensor.Backend](stateDict map[string]*tensor.RawTensor, params []*Parameter[B]) error {
	for _, p := range params {
		raw, ok := stateDict[p.Name()]
		if !ok {
			return fmt.Errorf("state dict is missing parameter %q", p.Name())
		}
		if err := p.Load(raw); err != nil {
			return err
		}
	}
	return nil
}

// stateDictOf collects the listed parameters into a state dictionary.
func stateDictOf[B tensor.Backend](params []*Parameter[B]) map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor, len(params))
	for _, p := range params {
		stateDict[p.Name()] = p.Tensor().Raw()
	}
	return stateDict
}
