package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/edutrack-service/internal/service"
)

// Register mounts all public routes on the given engine.
func Register(r *gin.Engine, db Pinger, users service.UserService) {
	h := NewHealthHandler(db)

	r.GET(RootPath, Root)

	r.GET(LivePath, h.Liveness)
	r.GET(ReadyPath, h.Readiness)

	RegisterDocs(r)

	NewUserHandler(users).Register(r)
}

// Root greets the caller. It touches no dependencies and always answers the same.
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": greetingText})
}
