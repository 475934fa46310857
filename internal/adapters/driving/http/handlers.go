package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/swaggo/swag"

	"github.com/custodia-labs/lexis-core/internal/core/domain"
	"github.com/custodia-labs/lexis-core/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// ReadyResponse reports the state of each backing dependency
// @Description Readiness response
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the database, Redis and the task queue
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{Status: "ready", Checks: map[string]string{}}
	check := func(name string, p Pinger) {
		if p == nil {
			return
		}
		if err := p.Ping(r.Context()); err != nil {
			resp.Status = "unavailable"
			resp.Checks[name] = err.Error()
			return
		}
		resp.Checks[name] = "ok"
	}
	check("database", s.db)
	check("redis", s.redis)
	if s.taskQueue != nil {
		check("queue", s.taskQueue)
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

func (s *Server) handleSwagger(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api documentation not registered")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, doc)
}

// Resource endpoints

// handleIngestText godoc
// @Summary      Ingest text
// @Description  Store curated text as a single chunk (admin only)
// @Tags         Resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.TextInput  true  "Text content"
// @Success      201      {object}  domain.IngestOutcome
// @Failure      400      {object}  domain.IngestOutcome  "Rejected input"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      403      {object}  ErrorResponse  "Forbidden - admin only"
// @Router       /resources/text [post]
func (s *Server) handleIngestText(w http.ResponseWriter, r *http.Request) {
	var req driving.TextInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	writeOutcome(w, s.ingestion.IngestText(r.Context(), req))
}

// handleIngestPDF godoc
// @Summary      Ingest PDF
// @Description  Extract, chunk and embed an uploaded PDF (admin only)
// @Tags         Resources
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file      formData  file    true   "PDF document"
// @Param        lei       formData  string  false  "Law reference"
// @Param        contexto  formData  string  false  "Context note"
// @Success      201       {object}  domain.IngestOutcome
// @Failure      400       {object}  domain.IngestOutcome  "Rejected input"
// @Failure      401       {object}  ErrorResponse  "Unauthorized"
// @Failure      403       {object}  ErrorResponse  "Forbidden - admin only"
// @Failure      413       {object}  ErrorResponse  "Upload too large"
// @Router       /resources/pdf [post]
func (s *Server) handleIngestPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	writeOutcome(w, s.ingestion.IngestPDF(r.Context(), driving.PDFInput{
		Filename: header.Filename,
		Data:     data,
		Lei:      r.FormValue("lei"),
		Contexto: r.FormValue("contexto"),
	}))
}

// handleIngestCurated godoc
// @Summary      Ingest curated excerpt
// @Description  Store a legislative excerpt pre-split into chunks (admin only)
// @Tags         Resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.CuratedInput  true  "Curated chunks"
// @Success      201      {object}  domain.IngestOutcome
// @Failure      400      {object}  domain.IngestOutcome  "Rejected input"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      403      {object}  ErrorResponse  "Forbidden - admin only"
// @Router       /resources/curated [post]
func (s *Server) handleIngestCurated(w http.ResponseWriter, r *http.Request) {
	var req driving.CuratedInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	writeOutcome(w, s.ingestion.IngestCurated(r.Context(), req))
}

// handleListResources godoc
// @Summary      List resources
// @Description  List ingested resources, newest first
// @Tags         Resources
// @Produce      json
// @Security     BearerAuth
// @Param        source_type  query     string  false  "TEXT, LINK or PDF"
// @Param        limit        query     int     false  "Page size"  default(50)
// @Param        offset       query     int     false  "Offset"     default(0)
// @Success      200          {array}   domain.Resource
// @Failure      400          {object}  ErrorResponse  "Invalid source type"
// @Failure      401          {object}  ErrorResponse  "Unauthorized"
// @Failure      500          {object}  ErrorResponse  "Internal server error"
// @Router       /resources [get]
func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	var sourceType domain.SourceType
	if raw := r.URL.Query().Get("source_type"); raw != "" {
		st, ok := domain.ParseSourceType(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid source type")
			return
		}
		sourceType = st
	}
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	resources, err := s.ingestion.ListResources(r.Context(), sourceType, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list resources")
		return
	}
	if resources == nil {
		resources = []*domain.Resource{}
	}

	writeJSON(w, http.StatusOK, resources)
}

// handleGetResource godoc
// @Summary      Get resource
// @Description  Get a resource by ID
// @Tags         Resources
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Resource ID"
// @Success      200  {object}  domain.Resource
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Resource not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /resources/{id} [get]
func (s *Server) handleGetResource(w http.ResponseWriter, r *http.Request) {
	resource, err := s.ingestion.GetResource(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLookupError(w, err, "resource")
		return
	}

	writeJSON(w, http.StatusOK, resource)
}

// handleListEmbeddings godoc
// @Summary      List resource chunks
// @Description  List the embedded chunks of a resource in position order
// @Tags         Resources
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Resource ID"
// @Success      200  {array}   domain.Embedding
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Resource not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /resources/{id}/embeddings [get]
func (s *Server) handleListEmbeddings(w http.ResponseWriter, r *http.Request) {
	embeddings, err := s.ingestion.ListEmbeddings(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLookupError(w, err, "resource")
		return
	}
	if embeddings == nil {
		embeddings = []*domain.Embedding{}
	}

	writeJSON(w, http.StatusOK, embeddings)
}

// handleDeleteResource godoc
// @Summary      Delete resource
// @Description  Delete a resource and its embeddings (admin only)
// @Tags         Resources
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Resource ID"
// @Success      200  {object}  StatusResponse
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      403  {object}  ErrorResponse  "Forbidden - admin only"
// @Failure      404  {object}  ErrorResponse  "Resource not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /resources/{id} [delete]
func (s *Server) handleDeleteResource(w http.ResponseWriter, r *http.Request) {
	if err := s.ingestion.DeleteResource(r.Context(), r.PathValue("id")); err != nil {
		writeLookupError(w, err, "resource")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// Link endpoints

// handleCreateLink godoc
// @Summary      Register link
// @Description  Register a monitored web page and ingest it immediately (admin only)
// @Tags         Links
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.LinkInput  true  "Link"
// @Success      201      {object}  domain.IngestOutcome
// @Failure      400      {object}  domain.IngestOutcome  "Rejected input or fetch failure"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      403      {object}  ErrorResponse  "Forbidden - admin only"
// @Router       /links [post]
func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req driving.LinkInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	writeOutcome(w, s.links.CreateLink(r.Context(), req))
}

// handleListLinks godoc
// @Summary      List links
// @Description  List monitored links
// @Tags         Links
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Link
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /links [get]
func (s *Server) handleListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := s.links.ListLinks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list links")
		return
	}
	if links == nil {
		links = []*domain.Link{}
	}

	writeJSON(w, http.StatusOK, links)
}

// handleGetLink godoc
// @Summary      Get link
// @Description  Get a monitored link by ID
// @Tags         Links
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Link ID"
// @Success      200  {object}  domain.Link
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Link not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /links/{id} [get]
func (s *Server) handleGetLink(w http.ResponseWriter, r *http.Request) {
	link, err := s.links.GetLink(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLookupError(w, err, "link")
		return
	}

	writeJSON(w, http.StatusOK, link)
}

// handleRefreshLink godoc
// @Summary      Refresh link
// @Description  Re-fetch a link and replace its resources (admin only)
// @Tags         Links
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Link ID"
// @Success      200  {object}  domain.IngestOutcome
// @Failure      400  {object}  domain.IngestOutcome  "Refresh failed"
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      403  {object}  ErrorResponse  "Forbidden - admin only"
// @Router       /links/{id}/refresh [post]
func (s *Server) handleRefreshLink(w http.ResponseWriter, r *http.Request) {
	outcome := s.links.RefreshLink(r.Context(), r.PathValue("id"))
	if outcome.Success {
		writeJSON(w, http.StatusOK, outcome)
		return
	}
	writeJSON(w, http.StatusBadRequest, outcome)
}

// handleDeleteLink godoc
// @Summary      Delete link
// @Description  Delete a link and every resource derived from it (admin only)
// @Tags         Links
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Link ID"
// @Success      200  {object}  StatusResponse
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      403  {object}  ErrorResponse  "Forbidden - admin only"
// @Failure      404  {object}  ErrorResponse  "Link not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /links/{id} [delete]
func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	if err := s.links.DeleteLink(r.Context(), r.PathValue("id")); err != nil {
		writeLookupError(w, err, "link")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// Retrieval endpoints

// retrieveRequest represents the request body for retrieval
// @Description Retrieval query request
type retrieveRequest struct {
	Query string `json:"query" example:"prazo para recurso de multa"`
}

// RetrieveResponse is the selected fragment list
// @Description Fragments selected for prompt injection
type RetrieveResponse struct {
	Fragments   []domain.Fragment `json:"fragments"`
	TotalTokens int               `json:"total_tokens"`
}

// handleRetrieve godoc
// @Summary      Retrieve fragments
// @Description  Select the most relevant knowledge-base fragments for a query within the token budget. Provider or store failures yield an empty list.
// @Tags         Retrieval
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      retrieveRequest  true  "Query"
// @Success      200      {object}  RetrieveResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Router       /retrieve [post]
func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fragments := s.retrieval.FindRelevantContent(r.Context(), req.Query)
	if fragments == nil {
		fragments = []domain.Fragment{}
	}

	writeJSON(w, http.StatusOK, RetrieveResponse{
		Fragments:   fragments,
		TotalTokens: domain.TotalTokens(fragments),
	})
}

// Admin endpoints

// handleQueueStats godoc
// @Summary      Queue statistics
// @Description  Task counts by status (admin only)
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  driven.QueueStats
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      403  {object}  ErrorResponse  "Forbidden - admin only"
// @Failure      503  {object}  ErrorResponse  "No task queue configured"
// @Router       /admin/queue [get]
func (s *Server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	if s.taskQueue == nil {
		writeError(w, http.StatusServiceUnavailable, "no task queue configured")
		return
	}

	stats, err := s.taskQueue.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get queue stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// writeOutcome maps an ingest outcome to 201 or 400
func writeOutcome(w http.ResponseWriter, outcome *domain.IngestOutcome) {
	if outcome.Success {
		writeJSON(w, http.StatusCreated, outcome)
		return
	}
	writeJSON(w, http.StatusBadRequest, outcome)
}

func writeLookupError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid "+what+" id")
	default:
		writeError(w, http.StatusInternalServerError, "failed to process "+what)
	}
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
