package paypal

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"eopbot/internal/httpserver"
	logx "eopbot/pkg/logx"
)

const maxBody = 64 << 10

// Handler serves POST / for IPN callbacks.
type Handler struct {
	cls     *Classifier
	verify  Verifier
	enforce bool
	log     logx.Logger
}

// NewHandler builds the IPN endpoint. Every notification is verified; with
// enforce set, unverified ones are rejected instead of only logged.
func NewHandler(cls *Classifier, v Verifier, enforce bool, log logx.Logger) *Handler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Handler{cls: cls, verify: v, enforce: enforce, log: log}
}

func (h *Handler) Routes(r gin.IRoutes) {
	r.POST("/", h.notify)
}

func (h *Handler) notify(c *gin.Context) {
	ctx := c.Request.Context()
	log := h.log.With(logx.String("request_id", httpserver.RequestIDFrom(c)))

	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBody))
	if err != nil {
		log.Debug("read body", logx.Err(err))
		httpserver.Fail(c, http.StatusBadRequest)
		return
	}

	verified := false
	if h.verify != nil {
		verified, err = h.verify.Verify(ctx, raw)
		if err != nil {
			log.Warn("ipn verification failed", logx.Err(err))
		}
	}
	if !verified {
		log.Warn("unverified ipn", logx.Bool("enforced", h.enforce))
		if h.enforce {
			httpserver.Fail(c, http.StatusForbidden)
			return
		}
	}

	ipn, err := ParseIPN(raw)
	if err != nil {
		log.Debug("rejecting ipn", logx.Err(err))
		httpserver.Fail(c, http.StatusBadRequest)
		return
	}
	if err := h.cls.Handle(ctx, ipn); err != nil {
		log.Debug("rejecting ipn", logx.String("txn_id", ipn.TxnID), logx.Err(err))
		httpserver.Fail(c, http.StatusBadRequest)
		return
	}
	log.Info("payment relayed", logx.String("txn_id", ipn.TxnID), logx.Bool("verified", verified))
	httpserver.OK(c)
}
