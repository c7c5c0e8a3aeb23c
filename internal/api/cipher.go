package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/RowanDark/hexkit/internal/cipher"
	"github.com/RowanDark/hexkit/internal/hexify"
	"github.com/RowanDark/hexkit/internal/logging"
)

// Input formats accepted in request bodies. JSON strings cannot carry
// arbitrary bytes, so binary input is sent as a $HEX[...] envelope.
const (
	FormatText   = "text"
	FormatHexify = "hexify"
)

// Input is embedded in every request that carries data.
type Input struct {
	Input       string `json:"input"`
	InputFormat string `json:"input_format,omitempty"`
}

func (in Input) bytes() ([]byte, error) {
	switch in.InputFormat {
	case "", FormatText:
		return []byte(in.Input), nil
	case FormatHexify:
		b := []byte(in.Input)
		if !hexify.IsHexify(b) {
			return nil, fmt.Errorf("input is not a %s...%s envelope", hexify.Prefix, hexify.Suffix)
		}
		return hexify.DefaultPolicy().Parse(b), nil
	}
	return nil, fmt.Errorf("unknown input_format %q", in.InputFormat)
}

// Output carries operation results. Escaped is set when Output is a
// $HEX[...] envelope around bytes that are not printable.
type Output struct {
	Output  string `json:"output"`
	Escaped bool   `json:"escaped"`
}

// render escapes b when it is not printable or would be mistaken for an
// envelope. The separator is irrelevant inside JSON.
func (s *Server) render(b []byte) Output {
	p := s.cfg.Policy
	v := p.Check(b)
	if !v.Unprintable && !v.LooksEscaped {
		return Output{Output: string(b)}
	}
	p.MaxFieldLen = max(len(b), 1)
	return Output{Output: string(p.Escape(b)), Escaped: true}
}

// ExecuteRequest represents a request to execute one operation
type ExecuteRequest struct {
	Input
	Operation string                 `json:"operation"`
	Params    map[string]interface{} `json:"params,omitempty"`
}

// PipelineRequest represents a request to execute a pipeline of operations
type PipelineRequest struct {
	Input
	Operations []cipher.OperationConfig `json:"operations"`
	Reverse    bool                     `json:"reverse,omitempty"`
}

// DetectRequest represents a request to auto-detect encoding
type DetectRequest struct {
	Input
	Decode bool `json:"decode,omitempty"`
}

// DecodedDetection pairs a detection with the outcome of its operation.
type DecodedDetection struct {
	cipher.DetectionResult
	Output  *Output `json:"result,omitempty"`
	Error   string  `json:"error,omitempty"`
	Success bool    `json:"success"`
}

// DetectResponse represents the detection result
type DetectResponse struct {
	Detections []cipher.DetectionResult `json:"detections"`
	Decoded    []DecodedDetection       `json:"decoded,omitempty"`
}

// CheckRequest asks whether input must be escaped. Unset fields fall back
// to the server policy.
type CheckRequest struct {
	Input
	Separator *string `json:"separator,omitempty"`
	ASCIIOnly *bool   `json:"ascii_only,omitempty"`
}

// CheckResponse reports the escaping verdict and the rendered field.
type CheckResponse struct {
	hexify.Verdict
	NeedsEscaping bool   `json:"needs_escaping"`
	Rendered      string `json:"rendered"`
}

// OperationInfo describes one registered operation
type OperationInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Reversible  bool   `json:"reversible"`
	Reverse     string `json:"reverse,omitempty"`
}

// RecipeSaveRequest represents a request to save a recipe
type RecipeSaveRequest struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Tags        []string                 `json:"tags,omitempty"`
	Operations  []cipher.OperationConfig `json:"operations"`
	Reversible  bool                     `json:"reversible,omitempty"`
}

// writeOpError maps operation failures onto status codes: cancellation to
// 408/504, unknown names and irreversible pipelines to 400, anything else to
// 422.
func (s *Server) writeOpError(w http.ResponseWriter, r *http.Request, err error) {
	if ctxErr := r.Context().Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.Canceled) {
			s.writeError(w, r, http.StatusRequestTimeout, "request canceled")
		} else {
			s.writeError(w, r, http.StatusGatewayTimeout, "request timeout")
		}
		return
	}
	switch {
	case errors.Is(err, cipher.ErrUnknownOperation), errors.Is(err, cipher.ErrNotReversible):
		s.writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, cipher.ErrRecipeNotFound):
		s.writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, cipher.ErrOutputTooLarge):
		s.writeError(w, r, http.StatusRequestEntityTooLarge, err.Error())
	default:
		s.writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	}
}

func (s *Server) handleListOperations(w http.ResponseWriter, r *http.Request) {
	ops := s.registry.List()
	if typ := r.URL.Query().Get("type"); typ != "" {
		ops = s.registry.ListByType(cipher.OperationType(typ))
	}

	list := make([]OperationInfo, 0, len(ops))
	for _, op := range ops {
		info := OperationInfo{
			Name:        op.Name(),
			Type:        string(op.Type()),
			Description: op.Description(),
		}
		if rev, ok := op.Reverse(); ok {
			info.Reversible = true
			info.Reverse = rev.Name()
		}
		list = append(list, info)
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"operations": list})
}

// handleExecute handles execution of a single operation
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if req.Operation == "" {
		s.writeError(w, r, http.StatusBadRequest, "operation field is required")
		return
	}
	input, err := req.bytes()
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.registry.Execute(r.Context(), req.Operation, input, req.Params)
	if err != nil {
		s.logger.Debug("operation failed",
			zap.String("operation", req.Operation),
			logging.CandidateWith(s.cfg.Policy, "input", input),
			zap.Error(err))
		s.writeOpError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, s.render(result))
}

// handlePipeline handles execution of a pipeline of operations
func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	var req PipelineRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if len(req.Operations) == 0 {
		s.writeError(w, r, http.StatusBadRequest, "operations field is required and must not be empty")
		return
	}
	input, err := req.bytes()
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	pipeline := &cipher.Pipeline{Operations: req.Operations, Reversible: req.Reverse}
	if req.Reverse {
		if pipeline, err = pipeline.ReverseWith(s.registry); err != nil {
			s.writeOpError(w, r, err)
			return
		}
	}

	result, err := pipeline.ExecuteWith(r.Context(), s.registry, input)
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, s.render(result))
}

// handleDetect handles auto-detection of encoding
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	input, err := req.bytes()
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(input) == 0 {
		s.writeError(w, r, http.StatusBadRequest, "input field is required")
		return
	}

	detections, err := cipher.NewSmartDetector().Detect(r.Context(), input)
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	resp := DetectResponse{Detections: detections}

	if req.Decode {
		results, err := cipher.DecodeAllWith(r.Context(), s.registry, input)
		if err != nil {
			s.writeOpError(w, r, err)
			return
		}
		for _, res := range results {
			d := DecodedDetection{DetectionResult: res.Detection, Success: res.Success, Error: res.Error}
			if res.Success {
				out := s.render(res.Decoded)
				d.Output = &out
			}
			resp.Decoded = append(resp.Decoded, d)
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleHexifyCheck reports whether input needs a $HEX[...] envelope
func (s *Server) handleHexifyCheck(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	input, err := req.bytes()
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	p := s.cfg.Policy
	if req.Separator != nil {
		if len(*req.Separator) != 1 {
			s.writeError(w, r, http.StatusBadRequest, "separator must be exactly one byte")
			return
		}
		p.Separator = (*req.Separator)[0]
	}
	if req.ASCIIOnly != nil {
		p.ASCIIOnly = *req.ASCIIOnly
	}

	v := p.Check(input)
	s.writeJSON(w, http.StatusOK, CheckResponse{
		Verdict:       v,
		NeedsEscaping: v.Needed(),
		Rendered:      string(p.Render(input)),
	})
}

func (s *Server) handleRecipeList(w http.ResponseWriter, r *http.Request) {
	recipes := s.recipes.ListRecipes()
	if q := r.URL.Query().Get("q"); q != "" {
		recipes = s.recipes.SearchRecipes(q)
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"recipes": recipes})
}

func (s *Server) handleRecipeSave(w http.ResponseWriter, r *http.Request) {
	var req RecipeSaveRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	for _, op := range req.Operations {
		if _, ok := s.registry.Get(op.Name); !ok {
			s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("%v: %s", cipher.ErrUnknownOperation, op.Name))
			return
		}
	}

	recipe := &cipher.Recipe{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
		Pipeline:    cipher.Pipeline{Operations: req.Operations, Reversible: req.Reversible},
	}
	if err := s.recipes.SaveRecipe(recipe); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusCreated, recipe)
}

func (s *Server) handleRecipeGet(w http.ResponseWriter, r *http.Request) {
	recipe, ok := s.recipes.GetRecipe(chi.URLParam(r, "name"))
	if !ok {
		s.writeError(w, r, http.StatusNotFound, "recipe not found")
		return
	}
	s.writeJSON(w, http.StatusOK, recipe)
}

func (s *Server) handleRecipeDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.recipes.DeleteRecipe(chi.URLParam(r, "name")); err != nil {
		if errors.Is(err, cipher.ErrRecipeNotFound) {
			s.writeError(w, r, http.StatusNotFound, err.Error())
			return
		}
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecipeRun(w http.ResponseWriter, r *http.Request) {
	var req Input
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	input, err := req.bytes()
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	name := chi.URLParam(r, "name")
	recipe, ok := s.recipes.GetRecipe(name)
	if !ok {
		s.writeError(w, r, http.StatusNotFound, "recipe not found")
		return
	}

	result, err := recipe.Pipeline.ExecuteWith(r.Context(), s.registry, input)
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.render(result))
}
