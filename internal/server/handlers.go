package server

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/project-tktt/job-dashboard/internal/domain"
	"github.com/project-tktt/job-dashboard/internal/logger"
)

const queryParam = "job_title"

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

type indexData struct {
	Query     string
	Region    string
	Dashboard *domain.Dashboard
	Error     string
	RequestID string
}

// handleIndex renders the HTML dashboard. Pipeline errors show inline.
func (s *Server) handleIndex(c *gin.Context) {
	query, ok := c.GetQuery(queryParam)
	if !ok {
		query = s.cfg.DefaultQuery
	}

	data := indexData{Query: query, Region: s.cfg.Region, RequestID: requestID(c)}
	d, err := s.runner.Run(c.Request.Context(), sessionKey(c), query)
	if err != nil {
		status, _ := classify(err)
		_ = c.Error(err)
		data.Error = publicMessage(status, err)
		c.HTML(status, "index.html", data)
		return
	}

	data.Dashboard = d
	c.HTML(http.StatusOK, "index.html", data)
}

// handleDashboard returns the datasets as JSON
func (s *Server) handleDashboard(c *gin.Context) {
	d, err := s.runner.Run(c.Request.Context(), sessionKey(c), c.Query(queryParam))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if s.cfg.Quota != nil {
		remaining, err := s.cfg.Quota.Remaining(c.Request.Context(), s.cfg.QuotaKey)
		if err != nil {
			s.log.Warn("quota status unavailable", logger.Error(err))
			body["quota_remaining"] = nil
		} else {
			body["quota_remaining"] = remaining
		}
	}
	c.JSON(http.StatusOK, body)
}
