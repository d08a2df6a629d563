package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentalpricing/internal/app/commands"
	"rentalpricing/internal/app/dto"
	paymentsapp "rentalpricing/internal/app/handlers/payments"
)

type PaymentHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type recordPaymentRequest struct {
	PeriodIndex int  `json:"period_index"`
	FullBalance bool `json:"full_balance"`
}

func (h PaymentHandler) Record(c *gin.Context) {
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := paymentsapp.RecordPaymentCommand{
		BookingID:       strings.TrimSpace(c.Param("id")),
		PeriodIndex:     req.PeriodIndex,
		FullBalance:     req.FullBalance,
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[paymentsapp.RecordPaymentCommand, *dto.Payment](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type confirmPaymentRequest struct {
	ConfirmedBy string `json:"confirmed_by"`
}

func (h PaymentHandler) Confirm(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := paymentsapp.ConfirmPaymentCommand{
		PaymentID:   strings.TrimSpace(c.Param("id")),
		ConfirmedBy: strings.TrimSpace(req.ConfirmedBy),
	}
	result, err := commands.Dispatch[paymentsapp.ConfirmPaymentCommand, *dto.Payment](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PaymentHTTP = PaymentHandler{}
