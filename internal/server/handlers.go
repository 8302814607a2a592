package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"stressoscope/internal/analysis"
	"stressoscope/internal/domain"
	"stressoscope/internal/games/cosmic"
	"stressoscope/internal/games/memory"
	"stressoscope/internal/games/narrative"
	"stressoscope/internal/jsonx"
	"stressoscope/internal/session"
)

const (
	msgMalformed      = "Invalid request body: Malformed JSON."
	msgMissingResults = "Missing game results data."
	msgInternal       = "An internal server error occurred."
	msgTooLarge       = "Request body too large."
)

func errorJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// readJSON decodes the request body into dst, writing the error response on
// failure.
func readJSON(c *gin.Context, dst any) bool {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			errorJSON(c, http.StatusRequestEntityTooLarge, msgTooLarge)
			return false
		}
		errorJSON(c, http.StatusBadRequest, msgMalformed)
		return false
	}
	if err := jsonx.Unmarshal(body, dst); err != nil {
		errorJSON(c, http.StatusBadRequest, msgMalformed)
		return false
	}
	return true
}

type healthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
	Sessions  int       `json:"sessions"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:    "ok",
		Version:   s.opts.Version,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Sessions:  s.deps.Sessions.Len(),
	})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analysis.Request
	if !readJSON(c, &req) {
		return
	}

	out, err := s.deps.Analyzer.Analyze(c.Request.Context(), req)
	if errors.Is(err, analysis.ErrMissingResults) {
		errorJSON(c, http.StatusBadRequest, msgMissingResults)
		return
	}
	if err != nil {
		s.deps.Logger.ErrorContext(c.Request.Context(), "analysis failed", "error", err)
		errorJSON(c, http.StatusInternalServerError, msgInternal)
		return
	}

	s.deps.Logger.InfoContext(c.Request.Context(), "analysis produced",
		"source", string(out.Source),
		"stress_level", out.Analysis.StressLevel,
		"cached", out.Cached)
	c.Header(SourceHeader, string(out.Source))
	c.JSON(http.StatusOK, out.Analysis)
}

type cosmicCatalog struct {
	Elements  []cosmic.Element  `json:"elements"`
	Questions []cosmic.Question `json:"questions"`
	MinPoints int               `json:"minPoints"`
	MaxPoints int               `json:"maxPoints"`
}

func (s *Server) handleCosmicCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, cosmicCatalog{
		Elements:  cosmic.Elements(),
		Questions: cosmic.Questions(),
		MinPoints: cosmic.MinConstellationPoints,
		MaxPoints: cosmic.MaxConstellationPoints,
	})
}

type classifyRequest struct {
	Points []domain.Point `json:"points"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
}

func (s *Server) handleClassify(c *gin.Context) {
	var req classifyRequest
	if !readJSON(c, &req) {
		return
	}
	if req.Width < 0 || req.Height < 0 {
		errorJSON(c, http.StatusBadRequest, "Canvas dimensions must not be negative.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"pattern": cosmic.Classify(req.Points, req.Width, req.Height)})
}

type levelResponse struct {
	Level int `json:"level"`
	memory.LevelConfig
}

func (s *Server) handleMemoryLevel(c *gin.Context) {
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "Level must be an integer.")
		return
	}
	if level < 1 {
		level = 1
	}
	c.JSON(http.StatusOK, levelResponse{Level: level, LevelConfig: memory.Level(level)})
}

func (s *Server) handleNarrativeScript(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"segments": narrative.DefaultScript()})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	state, err := s.deps.Sessions.Create(c.Request.Context())
	if err != nil {
		s.deps.Logger.ErrorContext(c.Request.Context(), "create session failed", "error", err)
		errorJSON(c, http.StatusInternalServerError, msgInternal)
		return
	}
	c.JSON(http.StatusCreated, state)
}

func (s *Server) sessionError(c *gin.Context, err error) {
	if errors.Is(err, session.ErrNotFound) {
		errorJSON(c, http.StatusNotFound, "Session not found.")
		return
	}
	s.deps.Logger.ErrorContext(c.Request.Context(), "session operation failed", "error", err)
	errorJSON(c, http.StatusInternalServerError, msgInternal)
}

func (s *Server) handleGetSession(c *gin.Context) {
	state, err := s.deps.Sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, state.Snapshot())
}

func (s *Server) handlePutSession(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, msgMalformed)
		return
	}
	snap, err := session.DecodeSnapshot(body)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid session snapshot.")
		return
	}
	state, err := s.deps.Sessions.Put(c.Request.Context(), c.Param("id"), snap)
	if err != nil {
		s.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, state.Snapshot())
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	removed, err := s.deps.Sessions.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.sessionError(c, err)
		return
	}
	if !removed {
		errorJSON(c, http.StatusNotFound, "Session not found.")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSessionAction(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, msgMalformed)
		return
	}
	action, err := session.DecodeAction(body)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid session action.")
		return
	}
	state, err := s.deps.Sessions.Apply(c.Request.Context(), c.Param("id"), action)
	if err != nil {
		s.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// handleSessionAnalyze runs the analysis for a stored session and records the
// outcome through the reducer.
func (s *Server) handleSessionAnalyze(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	state, err := s.deps.Sessions.Get(ctx, id)
	if err != nil {
		s.sessionError(c, err)
		return
	}
	if !state.ReadyForAnalysis() {
		if _, err := s.deps.Sessions.Apply(ctx, id, session.Action{
			Type:  session.ActionSetAnalysisError,
			Error: "Cannot trigger analysis: Missing some game results.",
		}); err != nil {
			s.sessionError(c, err)
			return
		}
		errorJSON(c, http.StatusBadRequest, msgMissingResults)
		return
	}

	if _, err := s.deps.Sessions.Apply(ctx, id, session.Action{Type: session.ActionTriggerAnalysis}); err != nil {
		s.sessionError(c, err)
		return
	}
	out, err := s.deps.Analyzer.Analyze(ctx, analysis.Request{
		CosmicResults:    state.CosmicResults,
		MemoryResults:    state.MemoryResults,
		NarrativeResults: state.NarrativeResults,
	})
	if err != nil {
		_, _ = s.deps.Sessions.Apply(ctx, id, session.Action{Type: session.ActionSetAnalysisError, Error: err.Error()})
		s.deps.Logger.ErrorContext(ctx, "session analysis failed", "error", err)
		errorJSON(c, http.StatusInternalServerError, msgInternal)
		return
	}

	result := out.Analysis
	next, err := s.deps.Sessions.Apply(ctx, id, session.Action{Type: session.ActionSetAnalysisComplete, Analysis: &result})
	if err != nil {
		s.sessionError(c, err)
		return
	}
	c.Header(SourceHeader, string(out.Source))
	c.JSON(http.StatusOK, next)
}
