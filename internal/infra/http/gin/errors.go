package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentalpricing/internal/app/commands"
	propertyapp "rentalpricing/internal/app/handlers/property"
	"rentalpricing/internal/app/queries"
	"rentalpricing/internal/app/uow"
	"rentalpricing/internal/app/validation"
	"rentalpricing/internal/domain/availability"
	"rentalpricing/internal/domain/booking"
	"rentalpricing/internal/domain/payments"
	"rentalpricing/internal/domain/pricing"
	"rentalpricing/internal/domain/property"
	"rentalpricing/internal/domain/shared/daterange"
	"rentalpricing/internal/domain/shared/money"
	mongostore "rentalpricing/internal/infra/db/mongo"
	"rentalpricing/internal/infra/storage/memory"
)

type errorResponse struct {
	Error       string                  `json:"error"`
	Fields      []validation.FieldError `json:"fields,omitempty"`
	FirstUnpaid *int                    `json:"first_unpaid_period,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, validation.ErrInvalidInput),
		errors.Is(err, daterange.ErrInvalidDay),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, pricing.ErrInvalidStay),
		errors.Is(err, pricing.ErrInvalidRate),
		errors.Is(err, money.ErrInvalidCurrency),
		errors.Is(err, availability.ErrInvalidRange),
		errors.Is(err, availability.ErrRangeTooLong),
		errors.Is(err, booking.ErrCheckInInPast),
		errors.Is(err, booking.ErrGuestRequired),
		errors.Is(err, property.ErrIDRequired),
		errors.Is(err, property.ErrHostRequired),
		errors.Is(err, property.ErrTitleRequired),
		errors.Is(err, payments.ErrPeriodOutOfRange),
		errors.Is(err, payments.ErrConfirmerRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, property.ErrPropertyNotFound),
		errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, payments.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, availability.ErrPropertyUnavailable),
		errors.Is(err, payments.ErrSequentialPayment),
		errors.Is(err, payments.ErrPeriodAlreadyPaid),
		errors.Is(err, payments.ErrBookingSettled),
		errors.Is(err, payments.ErrBookingNotPayable),
		errors.Is(err, payments.ErrStalePayment),
		errors.Is(err, payments.ErrInvalidPaymentState),
		errors.Is(err, booking.ErrInvalidState),
		errors.Is(err, booking.ErrPropertyLocked),
		errors.Is(err, propertyapp.ErrHostMismatch),
		errors.Is(err, memory.ErrConcurrentUpdate),
		errors.Is(err, mongostore.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, uow.ErrUnitOfWorkMissing),
		errors.Is(err, commands.ErrNilBus),
		errors.Is(err, queries.ErrNilBus):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps err to a status and a JSON body. Internal errors are
// logged with their cause and answered with a generic message.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	body := errorResponse{Error: err.Error()}

	var verr *validation.Error
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	var seq *payments.SequentialPaymentViolation
	if errors.As(err, &seq) {
		first := seq.FirstUnpaid
		body.FirstUnpaid = &first
	}

	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.ErrorContext(c.Request.Context(), "request failed", "status", status, "error", err, "path", c.FullPath())
		}
		body = errorResponse{Error: http.StatusText(status)}
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}
