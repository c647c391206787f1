package api

import "github.com/gin-gonic/gin"

// NewRouter builds the gin engine with the handler's routes mounted.
func NewRouter(h *Handler, mode string) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	h.Register(router)
	return router
}
