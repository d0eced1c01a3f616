package server

import (
	"net/http"
	"time"

	"github.com/wb-go/wbf/ginext"
)

// New wraps router in an http.Server. The write timeout is generous because
// POST /api/batches answers only after the whole batch has been processed.
func New(addr string, router *ginext.Engine) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
