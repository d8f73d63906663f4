package api

import (
	"net/http"

	"github.com/dd0wney/cluso-continuity/pkg/dependency"
	"github.com/dd0wney/cluso-continuity/pkg/graph"
	"github.com/dd0wney/cluso-continuity/pkg/mirror"
	"github.com/dd0wney/cluso-continuity/pkg/validation"
)

// handleUpsertNode serves PUT /v1/nodes/{id}.
func (s *Server) handleUpsertNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		s.respondErr(w, r, "upsert node", err)
		return
	}

	var req validation.NodeRequest
	if s.newRequestDecoder(w, r).DecodeJSON(&req).Validate(&req).RespondError() {
		return
	}

	nodeType, err := graph.ParseNodeType(req.NodeType)
	if err != nil {
		s.respondErr(w, r, "upsert node", err)
		return
	}
	attrs := graph.NodeAttributes{ID: id, Name: req.Name, Status: req.Status, RTO: req.RTO, RPO: req.RPO}
	if req.Criticality != nil {
		if attrs.Criticality, err = graph.ParseCriticality(*req.Criticality); err != nil {
			s.respondErr(w, r, "upsert node", err)
			return
		}
	}

	ref, err := s.graph.Sync(r.Context(), mirror.UpsertNodeMutation(tenantOf(r), nodeType, attrs))
	if err != nil {
		s.respondErr(w, r, "upsert node", err)
		return
	}
	s.respondJSON(w, http.StatusOK, ref)
}

// handleDeleteNode serves DELETE /v1/nodes/{id}.
func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		s.respondErr(w, r, "delete node", err)
		return
	}
	if _, err := s.graph.Sync(r.Context(), mirror.DeleteNodeMutation(tenantOf(r), id)); err != nil {
		s.respondErr(w, r, "delete node", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateEdge serves POST /v1/edges.
func (s *Server) handleCreateEdge(w http.ResponseWriter, r *http.Request) {
	var req validation.EdgeRequest
	if s.newRequestDecoder(w, r).DecodeJSON(&req).Validate(&req).RespondError() {
		return
	}
	for _, id := range []string{req.SourceID, req.TargetID} {
		if err := validation.ValidateNodeID(id); err != nil {
			s.respondErr(w, r, "create edge", err)
			return
		}
	}
	edgeType, err := graph.ParseEdgeType(req.Type)
	if err != nil {
		s.respondErr(w, r, "create edge", err)
		return
	}

	tenantID := tenantOf(r)
	if _, err := s.graph.Sync(r.Context(), mirror.CreateEdgeMutation(tenantID, req.SourceID, req.TargetID, edgeType)); err != nil {
		s.respondErr(w, r, "create edge", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, EdgeResponse{
		SourceID: req.SourceID,
		TargetID: req.TargetID,
		Type:     edgeType,
		TenantID: tenantID,
	})
}

type traversal func(r *http.Request, nodeID, tenantID string, depth int) (*graph.Tree, error)

// serveTree handles the shared shape of the dependency and impact routes.
func (s *Server) serveTree(w http.ResponseWriter, r *http.Request, op string, walk traversal) {
	id, err := nodeIDParam(r)
	if err != nil {
		s.respondErr(w, r, op, err)
		return
	}
	depth, err := depthParam(r, s.graph.MaxDepth())
	if err != nil {
		s.respondErr(w, r, op, err)
		return
	}

	tree, err := walk(r, id, tenantOf(r), depth)
	if err != nil {
		s.respondErr(w, r, op, err)
		return
	}
	s.respondJSON(w, http.StatusOK, TreeResponse{
		Tree:          tree,
		TotalCount:    dependency.Count(tree),
		DistinctCount: dependency.Distinct(tree),
	})
}

// handleDependencies serves GET /v1/nodes/{id}/dependencies?depth=.
func (s *Server) handleDependencies(w http.ResponseWriter, r *http.Request) {
	s.serveTree(w, r, "get dependencies", func(r *http.Request, nodeID, tenantID string, depth int) (*graph.Tree, error) {
		return s.resolver.GetDependencies(r.Context(), nodeID, tenantID, depth)
	})
}

// handleImpact serves GET /v1/nodes/{id}/impact?depth=.
func (s *Server) handleImpact(w http.ResponseWriter, r *http.Request) {
	s.serveTree(w, r, "get impact", func(r *http.Request, nodeID, tenantID string, depth int) (*graph.Tree, error) {
		return s.resolver.GetImpactAnalysis(r.Context(), nodeID, tenantID, depth)
	})
}

// handleCascade serves GET /v1/nodes/{id}/cascade.
func (s *Server) handleCascade(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		s.respondErr(w, r, "calculate cascade", err)
		return
	}
	res, err := s.cascade.CalculateImpactCascade(r.Context(), id, tenantOf(r))
	if err != nil {
		s.respondErr(w, r, "calculate cascade", err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}
