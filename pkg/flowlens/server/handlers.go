package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/randalmurphal/flowlens/pkg/flowlens/dispatch"
	"github.com/randalmurphal/flowlens/pkg/flowlens/event"
	"github.com/randalmurphal/flowlens/pkg/flowlens/models"
)

// deployPublishTimeout bounds how long a deploy notification may wait on
// a full subscriber buffer.
const deployPublishTimeout = 5 * time.Second

// SetCurrentModelRequest is the body of POST /models/current.
type SetCurrentModelRequest struct {
	ModelID string `json:"modelId" binding:"required"`
}

// SetAPIKeyRequest is the body of POST /models/api-key.
type SetAPIKeyRequest struct {
	Provider models.Provider `json:"provider" binding:"required"`
	APIKey   string          `json:"apiKey" binding:"required"`
}

// TestModelRequest is the body of POST /models/test.
type TestModelRequest struct {
	ModelID string `json:"modelId" binding:"required"`
}

// DeployRequest is the optional body of POST /events/deploy.
type DeployRequest struct {
	DeployType string `json:"deployType"`
}

// ModelsResponse is the body of GET /models.
type ModelsResponse struct {
	Models       []models.Descriptor `json:"models"`
	CurrentModel models.Descriptor   `json:"currentModel"`
	Stats        dispatch.UsageStats `json:"stats"`
}

// SuccessResponse acknowledges a mutation.
type SuccessResponse struct {
	Success      bool               `json:"success"`
	CurrentModel *models.Descriptor `json:"currentModel,omitempty"`
	Model        *models.Descriptor `json:"model,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"currentModel": s.registry.CurrentModelID(),
	})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	ai := false
	if v := c.Query("ai"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			abort(c, http.StatusBadRequest, CodeBadRequest, fmt.Errorf("invalid ai flag %q", v))
			return
		}
		ai = parsed
	}

	result, err := s.analyzer.Analyze(c.Request.Context(), ai)
	if err != nil {
		abort(c, http.StatusInternalServerError, CodeAnalysisFailed, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleHistory(c *gin.Context) {
	c.JSON(http.StatusOK, s.analyzer.History())
}

func (s *Server) handleClearUsage(c *gin.Context) {
	s.dispatcher.ClearHistory()
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (s *Server) handleFlow(c *gin.Context) {
	fa, err := s.analyzer.AnalyzeFlowByID(c.Request.Context(), c.Param("flowId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fa)
}

func (s *Server) handleModels(c *gin.Context) {
	c.JSON(http.StatusOK, ModelsResponse{
		Models:       s.registry.AllModels(),
		CurrentModel: s.registry.CurrentModel(),
		Stats:        s.dispatcher.UsageStats(),
	})
}

func (s *Server) handleSetCurrentModel(c *gin.Context) {
	var req SetCurrentModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	if !s.registry.SetCurrentModel(req.ModelID) {
		abort(c, http.StatusBadRequest, CodeModelNotFound, fmt.Errorf("%w: %s", models.ErrModelNotFound, req.ModelID))
		return
	}
	current := s.registry.CurrentModel()
	c.JSON(http.StatusOK, SuccessResponse{Success: true, CurrentModel: &current})
}

func (s *Server) handleSetAPIKey(c *gin.Context) {
	var req SetAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	if err := s.registry.SetAPIKey(req.Provider, req.APIKey); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (s *Server) handleRemoveAPIKey(c *gin.Context) {
	provider := models.Provider(c.Param("provider"))
	if !provider.Valid() {
		abort(c, http.StatusBadRequest, CodeValidation, fmt.Errorf("unknown provider %q", provider))
		return
	}
	s.registry.RemoveAPIKey(provider)
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (s *Server) handleTestModel(c *gin.Context) {
	var req TestModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, s.dispatcher.TestConnection(c.Request.Context(), req.ModelID))
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.dispatcher.ExportStats())
}

func (s *Server) handleAddCustomModel(c *gin.Context) {
	var d models.Descriptor
	if err := c.ShouldBindJSON(&d); err != nil {
		abort(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	if err := s.registry.AddCustomModel(d); err != nil {
		fail(c, err)
		return
	}
	added, _ := s.registry.Model(d.ID)
	c.JSON(http.StatusCreated, SuccessResponse{Success: true, Model: &added})
}

func (s *Server) handleRemoveCustomModel(c *gin.Context) {
	if err := s.registry.RemoveCustomModel(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (s *Server) handleDeploy(c *gin.Context) {
	if s.bus == nil {
		abort(c, http.StatusServiceUnavailable, CodeBusUnavailable, errors.New("event bus not configured"))
		return
	}

	var req DeployRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abort(c, http.StatusBadRequest, CodeBadRequest, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), deployPublishTimeout)
	defer cancel()

	evt := event.New(event.TypeFlowsDeployed, "http", event.FlowsDeployed{DeployType: req.DeployType})
	if err := s.bus.Publish(ctx, evt); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": true, "eventId": evt.ID()})
}
