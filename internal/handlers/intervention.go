package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studentbridge-backend/internal/repos"
	"github.com/yungbote/studentbridge-backend/internal/services"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

type InterventionHandler struct {
	db            *gorm.DB
	interventions repos.InterventionRepo
	tracker       services.TrackerService
	effectiveness services.EffectivenessService
}

func NewInterventionHandler(
	db *gorm.DB,
	interventions repos.InterventionRepo,
	tracker services.TrackerService,
	effectiveness services.EffectivenessService,
) *InterventionHandler {
	return &InterventionHandler{
		db:            db,
		interventions: interventions,
		tracker:       tracker,
		effectiveness: effectiveness,
	}
}

func interventionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intervention id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *InterventionHandler) ListByStudent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return
	}
	rows, err := h.interventions.GetByStudentID(c.Request.Context(), nil, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"interventions": rows})
}

func (h *InterventionHandler) Track(c *gin.Context) {
	id, ok := interventionID(c)
	if !ok {
		return
	}
	result, err := h.tracker.Track(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "intervention not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *InterventionHandler) RecordMetric(c *gin.Context) {
	id, ok := interventionID(c)
	if !ok {
		return
	}
	var req struct {
		MetricName  string     `json:"metric_name"`
		ValueBefore float64    `json:"value_before"`
		ValueAfter  float64    `json:"value_after"`
		RecordedAt  *time.Time `json:"recorded_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	recordedAt := time.Now().UTC()
	if req.RecordedAt != nil {
		recordedAt = *req.RecordedAt
	}
	sample := &types.MetricSample{
		InterventionID: id,
		MetricName:     req.MetricName,
		ValueBefore:    req.ValueBefore,
		ValueAfter:     req.ValueAfter,
		RecordedAt:     recordedAt,
	}
	created, err := h.effectiveness.RecordSample(c.Request.Context(), sample)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, created)
}

func (h *InterventionHandler) Effectiveness(c *gin.Context) {
	id, ok := interventionID(c)
	if !ok {
		return
	}
	report, err := h.effectiveness.Measure(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}
