package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dd0wney/cluso-continuity/pkg/catalog"
	"github.com/dd0wney/cluso-continuity/pkg/graph"
	"github.com/dd0wney/cluso-continuity/pkg/logging"
	"github.com/dd0wney/cluso-continuity/pkg/tenant"
	"github.com/dd0wney/cluso-continuity/pkg/validation"
)

// requestDecoder decodes and validates request bodies with a fluent
// interface. Check RespondError after the chain.
type requestDecoder struct {
	r          *http.Request
	w          http.ResponseWriter
	server     *Server
	err        error
	statusCode int
}

func (s *Server) newRequestDecoder(w http.ResponseWriter, r *http.Request) *requestDecoder {
	return &requestDecoder{r: r, w: w, server: s}
}

// DecodeJSON decodes the request body into v. Unknown fields are rejected.
func (rd *requestDecoder) DecodeJSON(v any) *requestDecoder {
	if rd.err != nil {
		return rd
	}
	dec := json.NewDecoder(rd.r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			rd.fail(http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", maxErr.Limit))
			return rd
		}
		rd.fail(http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
	}
	return rd
}

// Validate runs the struct-tag validation on v.
func (rd *requestDecoder) Validate(v any) *requestDecoder {
	if rd.err != nil {
		return rd
	}
	if err := validation.ValidateStruct(v); err != nil {
		rd.fail(http.StatusBadRequest, err)
	}
	return rd
}

func (rd *requestDecoder) fail(status int, err error) {
	rd.err = err
	rd.statusCode = status
}

// RespondError sends the error response and reports whether there was one.
func (rd *requestDecoder) RespondError() bool {
	if rd.err == nil {
		return false
	}
	rd.server.respondError(rd.w, rd.statusCode, rd.err.Error())
	return true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// statusOf maps engine errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case graph.IsNotFound(err), errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, validation.ErrInvalidParameter), errors.Is(err, graph.ErrInvalidArgument):
		return http.StatusBadRequest
	case graph.IsUnavailable(err), errors.Is(err, graph.ErrPartialSync):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondErr writes err with the status statusOf assigns. Server-side
// failures are logged and answered with a generic message.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			logging.Operation(op),
			logging.String("path", r.URL.Path),
			logging.Error(err))
		s.respondError(w, status, fmt.Sprintf("%s failed", op))
		return
	}
	s.respondError(w, status, err.Error())
}

// tenantOf returns the tenant injected by withTenant.
func tenantOf(r *http.Request) string {
	return tenant.MustFromContext(r.Context())
}

// nodeIDParam returns the validated {id} path variable.
func nodeIDParam(r *http.Request) (string, error) {
	id := mux.Vars(r)["id"]
	if err := validation.ValidateNodeID(id); err != nil {
		return "", err
	}
	return id, nil
}

// depthParam parses ?depth=. Absent yields -1, which callers treat as the
// default depth.
func depthParam(r *http.Request, max int) (int, error) {
	raw := r.URL.Query().Get("depth")
	if raw == "" {
		return -1, nil
	}
	depth, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: depth must be an integer, got %q", validation.ErrInvalidParameter, raw)
	}
	if err := validation.ValidateDepth(depth, max); err != nil {
		return 0, err
	}
	return depth, nil
}
