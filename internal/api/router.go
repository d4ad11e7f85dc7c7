// Package api is the admission HTTP surface (spec.md section 6): the gin
// router a browser or chat client hits to submit links, browse results, and
// enroll probe devices, laid out the way the teacher's cmd/api/main.go
// wires gin plus cors.
package api

import (
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the full route table. webBaseURL feeds the
// verification_uri returned from device enrollment.
func NewRouter(st LinkStore, p PipelineSpawner, bridge ProbeBridge, webBaseURL string) *gin.Engine {
	h := NewHandlers(st, p, bridge, webBaseURL)

	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	session := sessionMiddleware()
	probeAuth := probeBearerMiddleware(bridge)

	api := r.Group("/api")
	{
		api.POST("/links", session, h.SubmitLink)
		api.GET("/links", session, h.ListLinks)
		api.GET("/links/:id", session, h.GetLink)
		api.DELETE("/links/:id", session, h.DeleteLink)

		api.POST("/retry", session, h.RetryAll)
		api.POST("/retry/:id", session, h.RetryOne)

		api.POST("/auth/device", h.InitiateDeviceAuth)
		api.POST("/auth/token", h.PollDeviceToken)

		api.GET("/probe/subscribe_events", probeAuth, h.SubscribeEvents)
		api.POST("/probe/receive_result", probeAuth, h.ReceiveResult)
		api.GET("/probe/status", session, h.ProbeStatus)
	}

	r.GET("/auth/device", session, h.DeviceAuthPage)
	r.POST("/auth/device/authorize", session, h.DeviceAuthorize)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
