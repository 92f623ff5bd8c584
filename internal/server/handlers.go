package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bazaartrack/internal/bazaar"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Date layouts accepted for startDate/endDate query parameters.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q", bazaar.ErrInvalidInput, value)
}

func (s *Server) handleHistory(c *gin.Context) {
	itemID := c.Param("itemId")
	interval := bazaar.Interval(c.Query("interval"))

	start, err := parseDate(c.Query("startDate"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	end, err := parseDate(c.Query("endDate"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	points, err := s.analytics.History(c.Request.Context(), itemID, start, end, interval)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": points})
}

func (s *Server) handleLatest(c *gin.Context) {
	snaps, err := s.analytics.Latest(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": snaps})
}

func (s *Server) handleStats(c *gin.Context) {
	itemID := c.Param("itemId")
	period := bazaar.Period(c.DefaultQuery("period", string(bazaar.PeriodWeek)))

	stats, err := s.analytics.Stats(c.Request.Context(), itemID, period)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

func (s *Server) handleTrends(c *gin.Context) {
	itemID := c.Param("itemId")
	period := bazaar.Period(c.DefaultQuery("period", string(bazaar.PeriodWeek)))

	report, err := s.analytics.Trends(c.Request.Context(), itemID, period)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": report})
}

func (s *Server) handleVolatility(c *gin.Context) {
	period := bazaar.Period(c.DefaultQuery("period", string(bazaar.PeriodWeek)))

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.respondError(c, fmt.Errorf("%w: invalid limit %q", bazaar.ErrInvalidInput, raw))
			return
		}
		limit = parsed
	}

	entries, err := s.analytics.Volatility(c.Request.Context(), period, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": entries})
}

// respondError maps core error kinds to HTTP responses. Client mistakes get
// the full message; server-side failures get a safe summary, with detail
// only in the dev environment.
func (s *Server) respondError(c *gin.Context, err error) {
	if errors.Is(err, bazaar.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	s.logger.Error("query failed",
		zap.String("path", c.Request.URL.Path), zap.Error(err))

	body := gin.H{"success": false, "message": "Internal server error"}
	if s.dev {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}
