package api

import (
	"net/http"

	"github.com/skyfreight/cargoplan/app"
	"github.com/skyfreight/cargoplan/core/disruption"
)

// PlanRequest is the body of POST /plan/run. All fields are optional; an
// empty body runs the configured baseline.
type PlanRequest struct {
	Events       []disruption.Event `json:"events" validate:"dive"`
	Seed         *int64             `json:"seed"`
	WriteOutputs bool               `json:"write_outputs"`
	DataDir      string             `json:"data_dir"`
	OutputDir    string             `json:"output_dir"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// RunPlan executes the pipeline with the requested disruption events and
// returns the full plan payload.
func (h *Handler) RunPlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := h.readJSON(r, &req); err != nil {
			h.badRequest(w, r, err)
			return
		}
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	opts := h.runOptions()
	opts.Events = req.Events
	opts.WriteOutputs = req.WriteOutputs
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	if req.DataDir != "" {
		opts.DataDir = req.DataDir
	}
	if req.OutputDir != "" {
		opts.OutputDir = req.OutputDir
	}

	result, err := h.pipeline.Run(opts)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, app.BuildPayload(result))
}

// RunSample executes the baseline plan on the configured dataset without
// writing outputs.
func (h *Handler) RunSample(w http.ResponseWriter, r *http.Request) {
	result, err := h.pipeline.Run(h.runOptions())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, app.BuildPayload(result))
}

func (h *Handler) runOptions() app.Options {
	return app.Options{
		DataDir:        h.cfg.DataDir,
		OutputDir:      h.cfg.OutputDir,
		Seed:           h.cfg.Seed,
		StrictCapacity: h.cfg.Strict,
		GA:             h.cfg.GA,
	}
}
