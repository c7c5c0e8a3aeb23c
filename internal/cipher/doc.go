// Package cipher exposes the codecs and the $HEX[...] escaping policy as named
// operations that can be chained into pipelines, saved as recipes and picked
// automatically by a detector.
//
// # Quick Start
//
//	result, _ := cipher.Default.Execute(ctx, "bcrypt64_encode", []byte("salt"), nil)
//
// Decoders are lenient by default: a symbol outside the alphabet decodes as
// zero. Pass {"strict": true} to reject such input with ErrInvalidSymbol.
//
// # Pipelines
//
//	pipeline := &cipher.Pipeline{
//	    Operations: []cipher.OperationConfig{
//	        {Name: "gzip_compress"},
//	        {Name: "base64_encode"},
//	    },
//	    Reversible: true,
//	}
//	encoded, _ := pipeline.Execute(ctx, []byte("test"))
//	reversed, _ := pipeline.Reverse()
//	decoded, _ := reversed.Execute(ctx, encoded)
//
// # Escaping
//
// hexify wraps input that is not printable, contains the field separator or
// already looks like an envelope:
//
//	out, _ := cipher.Default.Execute(ctx, "hexify", []byte("a:b"), map[string]interface{}{
//	    "separator": ":",
//	})
//	// out: $HEX[613a62]
//
// # Thread Safety
//
// Registries and RecipeManager lock internally. Operations are stateless.
package cipher
