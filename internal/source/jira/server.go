package jira

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eopbot/internal/httpserver"
	logx "eopbot/pkg/logx"
)

// Handler serves POST /submit.
type Handler struct {
	cls *Classifier
	log logx.Logger
}

func NewHandler(cls *Classifier, log logx.Logger) *Handler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Handler{cls: cls, log: log}
}

func (h *Handler) Routes(r gin.IRoutes) {
	r.POST("/submit", h.submit)
}

func (h *Handler) submit(c *gin.Context) {
	var ev Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		h.log.Debug("rejecting payload",
			logx.String("request_id", httpserver.RequestIDFrom(c)),
			logx.Err(err),
		)
		httpserver.Fail(c, http.StatusBadRequest)
		return
	}
	h.cls.Handle(c.Request.Context(), &ev)
	httpserver.OK(c)
}
