package cipher

import (
	"context"
	"errors"
	"fmt"
)

// OperationType defines the category of transformation operation
type OperationType string

const (
	OperationTypeEncode     OperationType = "encode"
	OperationTypeDecode     OperationType = "decode"
	OperationTypeEscape     OperationType = "escape"
	OperationTypeTransform  OperationType = "transform"
	OperationTypeHash       OperationType = "hash"
	OperationTypeCompress   OperationType = "compress"
	OperationTypeDecompress OperationType = "decompress"
)

var (
	// ErrInvalidSymbol is wrapped by strict decoders when the input holds a
	// byte outside the codec's alphabet.
	ErrInvalidSymbol = errors.New("invalid symbol")
	// ErrUnknownOperation is returned when a name is not registered.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrNotReversible is returned when a pipeline cannot be inverted.
	ErrNotReversible = errors.New("not reversible")
	// ErrOutputTooLarge is returned when an operation would exceed its
	// output limit.
	ErrOutputTooLarge = errors.New("output too large")
)

// Operation is one named byte transformation. Implementations are
// stateless and safe for concurrent use.
type Operation interface {
	Name() string
	Type() OperationType
	Description() string
	Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error)
	// Reverse returns the inverse operation, if there is one.
	Reverse() (Operation, bool)
}

// OperationConfig is one pipeline step: an operation name and its parameters.
type OperationConfig struct {
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// Pipeline applies its steps in order, feeding each output to the next step.
type Pipeline struct {
	Operations []OperationConfig `json:"operations"`
	Reversible bool              `json:"reversible"`
}

// Execute runs the pipeline against the default registry.
func (p *Pipeline) Execute(ctx context.Context, input []byte) ([]byte, error) {
	return p.ExecuteWith(ctx, Default, input)
}

// ExecuteWith runs the pipeline against r. Cancellation is checked before
// every step.
func (p *Pipeline) ExecuteWith(ctx context.Context, r *Registry, input []byte) ([]byte, error) {
	result := input
	var err error

	for i, opConfig := range p.Operations {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline cancelled before step %d: %w", i, err)
		}

		result, err = r.Execute(ctx, opConfig.Name, result, opConfig.Parameters)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, opConfig.Name, err)
		}
	}

	return result, nil
}

// Reverse creates a reversed pipeline from the default registry.
func (p *Pipeline) Reverse() (*Pipeline, error) {
	return p.ReverseWith(Default)
}

// ReverseWith creates the inverse pipeline, resolving inverses in r. Step
// parameters are carried over unchanged.
func (p *Pipeline) ReverseWith(r *Registry) (*Pipeline, error) {
	if !p.Reversible {
		return nil, fmt.Errorf("pipeline: %w", ErrNotReversible)
	}

	reversed := &Pipeline{
		Operations: make([]OperationConfig, len(p.Operations)),
		Reversible: true,
	}

	for i, opConfig := range p.Operations {
		op, exists := r.Get(opConfig.Name)
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, opConfig.Name)
		}

		reverseOp, ok := op.Reverse()
		if !ok {
			return nil, fmt.Errorf("operation %s: %w", opConfig.Name, ErrNotReversible)
		}

		reversed.Operations[len(p.Operations)-1-i] = OperationConfig{
			Name:       reverseOp.Name(),
			Parameters: opConfig.Parameters,
		}
	}

	return reversed, nil
}

// Recipe is a pipeline saved under a name.
type Recipe struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Pipeline    Pipeline `json:"pipeline"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// DetectionResult represents the result of automatic encoding detection
type DetectionResult struct {
	Encoding   string  `json:"encoding"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
	Reasoning  string  `json:"reasoning"`
	Operation  string  `json:"operation,omitempty"`
}

// Detector identifies the encoding or format of input data
type Detector interface {
	Detect(ctx context.Context, input []byte) ([]DetectionResult, error)
	SupportedEncodings() []string
}

// BaseOperation holds the descriptive fields every operation shares.
type BaseOperation struct {
	NameValue        string
	TypeValue        OperationType
	DescriptionValue string
	ReverseOp        Operation
}

func (b *BaseOperation) Name() string {
	return b.NameValue
}

func (b *BaseOperation) Type() OperationType {
	return b.TypeValue
}

func (b *BaseOperation) Description() string {
	return b.DescriptionValue
}

func (b *BaseOperation) Reverse() (Operation, bool) {
	if b.ReverseOp == nil {
		return nil, false
	}
	return b.ReverseOp, true
}
