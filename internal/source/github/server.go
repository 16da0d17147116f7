package github

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	gh "github.com/google/go-github/v66/github"

	"eopbot/internal/httpserver"
	logx "eopbot/pkg/logx"
)

// maxBody bounds a webhook delivery; GitHub caps payloads at 25 MB.
const maxBody = 25 << 20

// Handler accepts deliveries on any path. When secret is set, the
// X-Hub-Signature-256 header must match.
type Handler struct {
	cls    *Classifier
	secret []byte
	log    logx.Logger
}

func NewHandler(cls *Classifier, secret string, log logx.Logger) *Handler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Handler{cls: cls, secret: []byte(secret), log: log}
}

// Routes mounts the webhook endpoint on r.
func (h *Handler) Routes(r gin.IRoutes) {
	r.POST("/*path", h.delivery)
}

func (h *Handler) delivery(c *gin.Context) {
	log := h.log.With(logx.String("request_id", httpserver.RequestIDFrom(c)))

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)
	payload, err := h.payload(c.Request)
	if err != nil {
		log.Debug("rejecting delivery", logx.Err(err))
		httpserver.Fail(c, http.StatusBadRequest)
		return
	}

	eventType := gh.WebHookType(c.Request)
	if err := h.cls.Handle(c.Request.Context(), eventType, payload); err != nil {
		log.Debug("undecodable delivery", logx.String("event", eventType), logx.Err(err))
		httpserver.Fail(c, http.StatusBadRequest)
		return
	}
	httpserver.OK(c)
}

func (h *Handler) payload(r *http.Request) ([]byte, error) {
	if len(h.secret) > 0 {
		return gh.ValidatePayload(r, h.secret)
	}
	ct := "application/json"
	if v := r.Header.Get("Content-Type"); v != "" {
		if mt, _, err := mime.ParseMediaType(v); err == nil {
			ct = mt
		}
	}
	// No signature check without a secret; this still unwraps form-encoded deliveries.
	return gh.ValidatePayloadFromBody(ct, r.Body, "", nil)
}
