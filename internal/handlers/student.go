package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/studentbridge-backend/internal/repos"
	"github.com/yungbote/studentbridge-backend/internal/services"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

type StudentHandler struct {
	signals     services.SignalService
	assessments services.AssessmentService
	planner     services.PlannerService
	scaler      services.ScalerService
}

func NewStudentHandler(
	signals services.SignalService,
	assessments services.AssessmentService,
	planner services.PlannerService,
	scaler services.ScalerService,
) *StudentHandler {
	return &StudentHandler{
		signals:     signals,
		assessments: assessments,
		planner:     planner,
		scaler:      scaler,
	}
}

func studentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *StudentHandler) RecordSignal(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}
	var req struct {
		Source     string          `json:"source"`
		Payload    json.RawMessage `json:"payload"`
		ObservedAt *time.Time      `json:"observed_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	observedAt := time.Now().UTC()
	if req.ObservedAt != nil {
		observedAt = *req.ObservedAt
	}
	signal := &types.StudentSignal{
		StudentID:  id,
		Source:     types.SignalSource(req.Source),
		Payload:    datatypes.JSON(req.Payload),
		ObservedAt: observedAt,
	}
	created, err := h.signals.RecordSignal(c.Request.Context(), signal)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, created)
}

func (h *StudentHandler) Assess(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}
	assessment, err := h.assessments.AssessStudent(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, assessment)
}

// Plan runs a full planning cycle against the latest assessment, creating it
// first when none exists, and returns the consolidated bundle.
func (h *StudentHandler) Plan(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	assessment, err := h.assessments.Latest(ctx, id)
	if errors.Is(err, repos.ErrNotFound) {
		assessment, err = h.assessments.AssessStudent(ctx, id)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	outcome, err := h.planner.PlanInterventions(ctx, assessment)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	plan := services.Consolidate(assessment, outcome.Created)
	c.JSON(http.StatusOK, gin.H{
		"plan":    plan,
		"skipped": outcome.Skipped,
	})
}

func (h *StudentHandler) AssessmentHistory(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}
	rows, err := h.assessments.History(c.Request.Context(), id, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assessments": rows})
}

func (h *StudentHandler) Rescale(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}
	var req struct {
		Trend          string   `json:"trend"`
		PotentialIndex *float64 `json:"potential_index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ctx := c.Request.Context()

	trend, ok := types.ParseTrend(req.Trend)
	if !ok {
		derived, err := h.scaler.DeriveTrend(ctx, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		trend = derived
	}
	potential := 0.5
	if req.PotentialIndex != nil {
		potential = *req.PotentialIndex
	}

	level, err := h.scaler.Rescale(ctx, id, trend, potential)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"level":      level,
		"trend":      trend,
		"strategies": services.StrategyForLevel(level.Level),
	})
}

func (h *StudentHandler) CurrentLevel(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}
	level, err := h.scaler.CurrentLevel(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"level":      level,
		"strategies": services.StrategyForLevel(level.Level),
	})
}
