package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/confradar/confradar/internal/ml"
	"github.com/confradar/confradar/internal/services"
	"github.com/confradar/confradar/pkg/models"
)

type QueryHandler struct {
	ranking  *services.RankingOrchestrator
	report   *services.ReportBuilder
	textGen  *ml.TextGenService
	logger   *logrus.Logger
	validate *validator.Validate
}

func NewQueryHandler(
	ranking *services.RankingOrchestrator,
	report *services.ReportBuilder,
	textGen *ml.TextGenService,
	logger *logrus.Logger,
) *QueryHandler {
	return &QueryHandler{
		ranking:  ranking,
		report:   report,
		textGen:  textGen,
		logger:   logger,
		validate: validator.New(),
	}
}

func (h *QueryHandler) Query(c *gin.Context) {
	var req models.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Request body must contain a non-empty text field",
			},
		})
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Query text must be 1-500 characters and limit between 1 and 50",
			},
		})
		return
	}

	result, err := h.ranking.Rank(c.Request.Context(), req.Text, req.Limit)
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "EMPTY_QUERY",
					"message": "Query text must not be empty",
				},
			})
			return
		}

		h.logger.WithError(err).Error("Ranking failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": gin.H{
				"code":    "SERVICE_BUSY",
				"message": "Service temporarily unavailable, please retry",
			},
		})
		return
	}

	response := models.QueryResponse{
		Intent:      result.Intent,
		Results:     result.Results,
		GeneratedAt: result.GeneratedAt,
	}

	if req.Explain {
		response.Answer = h.buildAnswer(c, result)
	}

	c.JSON(http.StatusOK, response)
}

// buildAnswer asks the remote generator for prose and falls back to
// the deterministic report when that fails for any reason.
func (h *QueryHandler) buildAnswer(c *gin.Context, result *services.RankResult) string {
	table := h.report.Table(result.Results)
	summary := h.report.IntentSummary(result.Intent)

	if h.textGen.Available() {
		answer, err := h.textGen.GenerateAnswer(c.Request.Context(), summary, table)
		if err == nil {
			return answer
		}
		h.logger.WithError(err).Warn("Answer generation failed, using deterministic report")
	}

	return h.report.Report(result.Intent, result.Results)
}
