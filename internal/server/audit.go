package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	auditdomain "github.com/codelearn/payrec/internal/audit/domain"
)

type auditLogResponse struct {
	ID         string         `json:"id"`
	ActorType  string         `json:"actor_type"`
	ActorID    string         `json:"actor_id,omitempty"`
	Action     string         `json:"action"`
	TargetType string         `json:"target_type"`
	TargetID   string         `json:"target_id,omitempty"`
	Metadata   map[string]any `json:"metadata"`
	IPAddress  string         `json:"ip_address,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ListAuditLogs returns the newest audit entries, optionally filtered by
// action, target and time window.
func (s *Server) ListAuditLogs(c *gin.Context) {
	filter := auditdomain.ListFilter{
		Action:     c.Query("action"),
		TargetType: c.Query("target_type"),
		TargetID:   c.Query("target_id"),
	}

	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be a positive integer"))
			return
		}
		filter.Limit = limit
	}
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("since", "invalid_timestamp", "since must be RFC3339"))
			return
		}
		filter.StartAt = &at
	}
	if raw := strings.TrimSpace(c.Query("until")); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("until", "invalid_timestamp", "until must be RFC3339"))
			return
		}
		filter.EndAt = &at
	}

	entries, err := s.audit.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]auditLogResponse, 0, len(entries))
	for _, entry := range entries {
		row := auditLogResponse{
			ID:         entry.ID.String(),
			ActorType:  entry.ActorType,
			Action:     entry.Action,
			TargetType: entry.TargetType,
			Metadata:   entry.Metadata,
			CreatedAt:  entry.CreatedAt,
		}
		if entry.ActorID != nil {
			row.ActorID = *entry.ActorID
		}
		if entry.TargetID != nil {
			row.TargetID = *entry.TargetID
		}
		if entry.IPAddress != nil {
			row.IPAddress = *entry.IPAddress
		}
		out = append(out, row)
	}

	c.JSON(http.StatusOK, gin.H{"data": out})
}
