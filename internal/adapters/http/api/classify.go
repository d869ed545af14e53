package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/astrolab/knwatch/internal/domain/model"
)

const maxBodyBytes = 32 << 20

// ClassifyHandler handles synchronous batch classification.
type ClassifyHandler struct {
	processor Processor
}

// NewClassifyHandler creates a classify handler.
func NewClassifyHandler(p Processor) *ClassifyHandler {
	return &ClassifyHandler{processor: p}
}

// HandleClassify handles POST /v1/classify requests. The body is one
// columnar alert batch; the response carries the aligned verdicts.
func (h *ClassifyHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var b model.Batch
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}

	verdicts, err := h.processor.Process(r.Context(), &b)
	if err != nil {
		if errors.Is(err, model.ErrMisaligned) {
			writeError(w, http.StatusBadRequest, "misaligned_batch", err)
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "rejected_batch", err)
		return
	}

	writeJSON(w, http.StatusOK, classifyResponse{Verdicts: verdicts})
}
