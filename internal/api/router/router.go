package router

import (
	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/image-filter/internal/api/handlers/batch"
)

func Setup(h *batch.Handler) *ginext.Engine {
	r := ginext.New()

	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	api := r.Group("/api")

	api.POST("/batches", h.Run)    // run a batch synchronously
	api.GET("/batches/:id", h.Get) // getting a recorded outcome by id

	return r
}
