package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngfenglong/JiakAIBot/models"
)

// AccessRequestLister reads back recorded access requests for review.
type AccessRequestLister interface {
	ListAccessRequests(ctx context.Context) ([]models.AccessRequest, error)
}

func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListAccessRequests returns the pending access requests, oldest first.
// Approval itself is manual: an operator adds the id to the allow-list
// and restarts the bot.
func ListAccessRequests(requests AccessRequestLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqs, err := requests.ListAccessRequests(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(reqs), "requests": reqs})
	}
}
