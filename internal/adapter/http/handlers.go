package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"p2p-lending-core/internal/usecase/lifecycle"
	"p2p-lending-core/pkg/id"
)

// Handler serves the admin and integration API over a Coordinator.
type Handler struct {
	uc    *lifecycle.Coordinator
	store string
	log   *zap.SugaredLogger
}

// NewHandler takes the coordinator and a short name of the backing store,
// reported by /health.
func NewHandler(uc *lifecycle.Coordinator, store string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{uc: uc, store: store, log: log.Sugar()}
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"store":  h.store,
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

const errBadLoanID = "invalid loan_id path param"

func pathLoanID(c echo.Context) (string, bool) {
	v := c.Param("loan_id")
	return v, id.IsID32(v)
}

// Register mounts every route. mutating wraps the routes that change state
// (the idempotency middleware when redis is configured).
func Register(e *echo.Echo, h *Handler, mutating ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health)

	lr := e.Group("/loan-requests")
	lr.POST("", h.SubmitLoanRequest, mutating...)
	lr.GET("/:loan_id/review", h.GetReview)
	lr.GET("/:loan_id/matches", h.GetMatches)
	lr.POST("/:loan_id/approve", h.Approve, mutating...)
	lr.POST("/:loan_id/reject", h.Reject, mutating...)
	lr.POST("/:loan_id/request-data", h.RequestData, mutating...)
	lr.POST("/:loan_id/adjust-terms", h.AdjustTerms, mutating...)

	ln := e.Group("/loans")
	ln.GET("/:loan_id", h.GetLoan)
	ln.DELETE("/:loan_id", h.DeleteLoan, mutating...)
	ln.POST("/:loan_id/payments", h.ProcessPayment, mutating...)

	rm := e.Group("/reminders")
	rm.GET("/stats", h.ReminderStats)
	rm.POST("/:schedule_id/reset", h.ResetReminder, mutating...)

	ld := e.Group("/lenders")
	ld.GET("", h.ListLenders)
	ld.PUT("/:lender_id", h.UpsertLender, mutating...)
}
