package cipher

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineExecution(t *testing.T) {
	tests := []struct {
		name       string
		operations []OperationConfig
		input      string
		expected   string
	}{
		{
			name:       "single operation",
			operations: []OperationConfig{{Name: "base64_encode"}},
			input:      "hello",
			expected:   "aGVsbG8=",
		},
		{
			name:       "double encoding",
			operations: []OperationConfig{{Name: "base64_encode"}, {Name: "base64_encode"}},
			input:      "test",
			expected:   "ZEdWemRBPT0=",
		},
		{
			name:       "encode then decode",
			operations: []OperationConfig{{Name: "base32_encode"}, {Name: "base32_decode"}},
			input:      "hello world",
			expected:   "hello world",
		},
		{
			name: "escape then encode",
			operations: []OperationConfig{
				{Name: "hexify", Parameters: map[string]interface{}{"force": true}},
				{Name: "uppercase"},
			},
			input:    "ok",
			expected: "$HEX[6F6B]",
		},
	}

	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := &Pipeline{Operations: tt.operations}

			result, err := pipeline.Execute(ctx, []byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestPipelineReversibility(t *testing.T) {
	tests := []struct {
		name       string
		operations []OperationConfig
		input      string
	}{
		{
			name:       "single reversible operation",
			operations: []OperationConfig{{Name: "base64_encode"}},
			input:      "hello world",
		},
		{
			name: "multiple reversible operations",
			operations: []OperationConfig{
				{Name: "hexify", Parameters: map[string]interface{}{"separator": "@"}},
				{Name: "itoa64_encode"},
				{Name: "hex_encode"},
			},
			input: "test@example.com",
		},
		{
			name: "compression and encoding",
			operations: []OperationConfig{
				{Name: "gzip_compress"},
				{Name: "lotus64_encode"},
			},
			input: "This is a long text that should compress well. " +
				"It has lots of repetitive content. " +
				"This is a long text that should compress well.",
		},
	}

	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := &Pipeline{Operations: tt.operations, Reversible: true}

			encoded, err := pipeline.Execute(ctx, []byte(tt.input))
			require.NoError(t, err)

			reversePipeline, err := pipeline.Reverse()
			require.NoError(t, err)
			require.Len(t, reversePipeline.Operations, len(tt.operations))

			decoded, err := reversePipeline.Execute(ctx, encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.input, string(decoded))
		})
	}
}

func TestPipelineReverseOrder(t *testing.T) {
	pipeline := &Pipeline{
		Operations: []OperationConfig{
			{Name: "gzip_compress", Parameters: map[string]interface{}{"level": 9}},
			{Name: "base64_encode"},
		},
		Reversible: true,
	}

	reversed, err := pipeline.Reverse()
	require.NoError(t, err)
	assert.Equal(t, "base64_decode", reversed.Operations[0].Name)
	assert.Equal(t, "gzip_decompress", reversed.Operations[1].Name)
	assert.Equal(t, 9, reversed.Operations[1].Parameters["level"])
}

func TestPipelineNonReversible(t *testing.T) {
	hashed := &Pipeline{Operations: []OperationConfig{{Name: "md5_hash"}}, Reversible: true}
	_, err := hashed.Reverse()
	assert.ErrorIs(t, err, ErrNotReversible)

	flagged := &Pipeline{Operations: []OperationConfig{{Name: "base64_encode"}}}
	_, err = flagged.Reverse()
	assert.ErrorIs(t, err, ErrNotReversible)

	unknown := &Pipeline{Operations: []OperationConfig{{Name: "nope"}}, Reversible: true}
	_, err = unknown.Reverse()
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestPipelineUnknownOperation(t *testing.T) {
	pipeline := &Pipeline{Operations: []OperationConfig{{Name: "unknown_operation"}}}

	_, err := pipeline.Execute(context.Background(), []byte("test"))
	assert.ErrorIs(t, err, ErrUnknownOperation)
	assert.Contains(t, err.Error(), "step 0")
}

func TestPipelineEmptyOperations(t *testing.T) {
	pipeline := &Pipeline{Operations: []OperationConfig{}, Reversible: true}

	result, err := pipeline.Execute(context.Background(), []byte("test"))
	require.NoError(t, err)
	assert.Equal(t, "test", string(result))
}

func TestPipelineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pipeline := &Pipeline{Operations: []OperationConfig{{Name: "base64_encode"}}}
	_, err := pipeline.Execute(ctx, []byte("test"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipelineExecuteWithCountsSteps(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	r := NewRegistry(m)
	require.NoError(t, r.Register(newMock("noop", OperationTypeTransform)))

	pipeline := &Pipeline{Operations: []OperationConfig{{Name: "noop"}, {Name: "noop"}, {Name: "noop"}}}
	out, err := pipeline.ExecuteWith(context.Background(), r, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(out))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Operations.WithLabelValues("noop", "ok")))
}
