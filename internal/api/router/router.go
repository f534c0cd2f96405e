package router

import (
	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/image-resizer/internal/api/handlers/job"
	"github.com/aliskhannn/image-resizer/internal/api/handlers/report"
)

// Setup registers the API routes. rh may be nil when reports are not persisted.
func Setup(jh *job.Handler, rh *report.Handler) *ginext.Engine {
	r := ginext.New()

	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	api := r.Group("/api")

	api.POST("/jobs", jh.Submit) // queueing a batch job

	if rh != nil {
		api.GET("/reports/:id", rh.Get)       // getting a batch report by id
		api.DELETE("/reports/:id", rh.Delete) // deleting a batch report by id
	}

	return r
}
