package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentalpricing/internal/app/commands"
	"rentalpricing/internal/app/dto"
	pricingapp "rentalpricing/internal/app/handlers/pricing"
	propertyapp "rentalpricing/internal/app/handlers/property"
	"rentalpricing/internal/app/queries"
)

type PropertyHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
	// DefaultCurrency applies when the request omits one.
	DefaultCurrency string
}

type upsertPropertyRequest struct {
	HostID      string `json:"host_id"`
	Title       string `json:"title"`
	Address     string `json:"address"`
	Currency    string `json:"currency"`
	NightlyRate int64  `json:"nightly_rate"`
	WeeklyRate  *int64 `json:"weekly_rate"`
	MonthlyRate *int64 `json:"monthly_rate"`
}

func (h PropertyHandler) Upsert(c *gin.Context) {
	var req upsertPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = h.DefaultCurrency
	}
	cmd := propertyapp.UpsertPropertyCommand{
		PropertyID:  strings.TrimSpace(c.Param("id")),
		HostID:      strings.TrimSpace(req.HostID),
		Title:       strings.TrimSpace(req.Title),
		Address:     strings.TrimSpace(req.Address),
		Currency:    currency,
		NightlyRate: req.NightlyRate,
		WeeklyRate:  req.WeeklyRate,
		MonthlyRate: req.MonthlyRate,
	}
	result, err := commands.Dispatch[propertyapp.UpsertPropertyCommand, *dto.Property](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Quote(c *gin.Context) {
	query := pricingapp.QuoteStayQuery{
		PropertyID: strings.TrimSpace(c.Param("id")),
		CheckIn:    c.Query("check_in"),
		CheckOut:   c.Query("check_out"),
	}
	result, err := queries.Ask[pricingapp.QuoteStayQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PropertyHTTP = PropertyHandler{}
