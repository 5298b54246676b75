package rest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Gunvolt24/ticket_service/internal/domain"
	"github.com/Gunvolt24/ticket_service/internal/ports"
	"github.com/Gunvolt24/ticket_service/pkg/ctxmeta"
	"github.com/Gunvolt24/ticket_service/pkg/validate"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	// IdempotencyKeyHeader — ключ идемпотентности покупки.
	IdempotencyKeyHeader = "Idempotency-Key"
	// ReplayedHeader — ответ отдан из кэша по ключу идемпотентности.
	ReplayedHeader = "X-Idempotency-Replayed"

	maxBodyBytes = 1 << 20
)

// Handler — HTTP-обработчики покупок.
type Handler struct {
	service ports.PurchaseService
	cache   ports.ReceiptCache // nil — без идемпотентных повторов
	log     ports.Logger
	timeout time.Duration
	flights singleflight.Group
}

// NewHandler — timeout <= 0 отключает дедлайн на обработку запроса.
func NewHandler(service ports.PurchaseService, cache ports.ReceiptCache, log ports.Logger, timeout time.Duration) *Handler {
	return &Handler{service: service, cache: cache, log: log, timeout: timeout}
}

// purchaseResponse — чек покупки в ответе API.
type purchaseResponse struct {
	AccountID          int64  `json:"account_id"`
	TotalAmount        int    `json:"total_amount"`
	TotalAmountDisplay string `json:"total_amount_display"`
	TotalSeats         int    `json:"total_seats"`
	TicketCount        int    `json:"ticket_count"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func newPurchaseResponse(r *domain.Receipt) purchaseResponse {
	return purchaseResponse{
		AccountID:          r.AccountID,
		TotalAmount:        r.TotalAmount,
		TotalAmountDisplay: decimal.New(int64(r.TotalAmount), -2).StringFixed(2),
		TotalSeats:         r.TotalSeats,
		TicketCount:        r.TicketCount,
	}
}

// purchaseTickets — POST /purchases.
func (h *Handler) purchaseTickets(c *gin.Context) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: validate.KindMalformed, Message: "cannot read request body"})
		return
	}

	req, err := validate.DecodePurchaseRequest(raw)
	if err != nil {
		h.log.Warnf(c.Request.Context(), "malformed purchase request err=%v", err)
		c.JSON(http.StatusBadRequest, errorResponse{Error: validate.KindMalformed, Message: err.Error()})
		return
	}

	ctx, cancel := h.withTimeout(c.Request.Context())
	defer cancel()

	key := c.GetHeader(IdempotencyKeyHeader)
	if key == "" || h.cache == nil {
		receipt, err := h.service.Purchase(ctx, req)
		h.respond(c, receipt, err)
		return
	}

	// Ключ кэша привязан к телу: тот же ключ с другим телом — другая покупка.
	// Этот же ключ уходит в платёж и реестры.
	cacheKey := key + ":" + bodyHash(raw)
	if receipt, ok := h.cache.Get(ctx, cacheKey); ok {
		c.Header(ReplayedHeader, "true")
		c.JSON(http.StatusOK, newPurchaseResponse(receipt))
		return
	}

	// Результат полёта ждут все запросы с этим ключом, поэтому отмена
	// запроса-инициатора его не прерывает; таймаут обработчика остаётся.
	flightCtx := context.WithoutCancel(c.Request.Context())
	v, err, shared := h.flights.Do(cacheKey, func() (any, error) {
		fctx, fcancel := h.withTimeout(flightCtx)
		defer fcancel()
		fctx = ctxmeta.WithIdempotencyKey(fctx, cacheKey)

		receipt, err := h.service.Purchase(fctx, req)
		if err != nil {
			return nil, err
		}
		if setErr := h.cache.Set(fctx, cacheKey, receipt); setErr != nil {
			h.log.Warnf(fctx, "receipt cache set failed err=%v", setErr)
		}
		return receipt, nil
	})
	if shared && err == nil {
		c.Header(ReplayedHeader, "true")
	}
	receipt, _ := v.(*domain.Receipt)
	h.respond(c, receipt, err)
}

// withTimeout — timeout <= 0 оставляет контекст без дедлайна.
func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, h.timeout)
}

func (h *Handler) respond(c *gin.Context, receipt *domain.Receipt, err error) {
	if err == nil {
		c.JSON(http.StatusOK, newPurchaseResponse(receipt))
		return
	}

	status, body := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorf(c.Request.Context(), "purchase failed status=%d err=%v", status, err)
	}
	c.JSON(status, body)
}

// errorStatus — отказ по правилам 422, внешний сервис 502, прочее 500.
func errorStatus(err error) (int, errorResponse) {
	var ipe *domain.InvalidPurchaseError
	if errors.As(err, &ipe) {
		status := http.StatusUnprocessableEntity
		if ipe.Kind == domain.KindThirdParty {
			status = http.StatusBadGateway
		}
		return status, errorResponse{Error: string(ipe.Kind), Message: ipe.Message}
	}
	if errors.Is(err, validate.ErrMalformedRequest) {
		return http.StatusBadRequest, errorResponse{Error: validate.KindMalformed, Message: err.Error()}
	}
	return http.StatusInternalServerError, errorResponse{Error: "INTERNAL_ERROR", Message: "internal server error"}
}

func bodyHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}
