package http

import (
	"github.com/gin-gonic/gin"
)

// Register mounts the API on r. auth guards every /api route.
func (h *Handlers) Register(r gin.IRouter, auth gin.HandlerFunc) {
	r.GET("/health", h.Health)

	api := r.Group("/api", auth)

	api.GET("/jobs", h.ListJobs)
	api.POST("/jobs/create", h.CreateJob)
	api.PATCH("/jobs/create", h.UpdateJob)

	jobs := api.Group("/jobs/:jobId")
	jobs.GET("/chat", h.ChatHistory)
	jobs.POST("/chat", h.SendChat)
	jobs.POST("/chat/delete", h.DeleteChat)
	jobs.GET("/candidates", h.ListCandidates)

	cands := api.Group("/candidate")
	cands.POST("/search", h.SearchCandidates)
	cands.POST("/add", h.AddCandidate)
	cands.POST("/scan", h.ScanCandidates)

	rt := api.Group("/realtime")
	rt.POST("/claim", h.ClaimConnection)
	rt.GET("/connections", h.Connections)
}
