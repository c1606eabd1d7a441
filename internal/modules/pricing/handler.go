package pricing

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/response"
)

// Handler serves quotes. Nothing is persisted.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/pricing")
	g.POST("/space-quote", h.SpaceQuote)
	g.POST("/order-quote", h.OrderQuote)
}

type SpaceQuoteRequest struct {
	RateKind  domain.RateKind `json:"rate_kind"`
	Rate      decimal.Decimal `json:"rate"`
	StartTime time.Time       `json:"start_time" binding:"required"`
	EndTime   time.Time       `json:"end_time" binding:"required"`
}

type OrderQuoteRequest struct {
	Items       []domain.OrderItem `json:"items"`
	Discount    decimal.Decimal    `json:"discount"`
	TaxRate     decimal.Decimal    `json:"tax_rate"`
	TaxRequired bool               `json:"tax_required"`
}

func (h *Handler) SpaceQuote(c *gin.Context) {
	var req SpaceQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "validation", "invalid request body", err.Error())
		return
	}
	if req.RateKind == "" {
		req.RateKind = domain.RateHourly
	}

	total, err := ResourceTotal(&domain.Resource{RateKind: req.RateKind, Rate: req.Rate}, req.StartTime, req.EndTime)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "space_quote", gin.H{
		"hours": req.EndTime.Sub(req.StartTime).Hours(),
		"total": total.StringFixed(minorUnits),
	})
}

func (h *Handler) OrderQuote(c *gin.Context) {
	var req OrderQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "validation", "invalid request body", err.Error())
		return
	}
	for _, it := range req.Items {
		if it.Quantity.IsNegative() || it.UnitPrice.IsNegative() {
			response.Error(c, http.StatusBadRequest, "validation", "item quantity and unit price must not be negative")
			return
		}
	}

	t := ComputeOrder(OrderInput{
		Items:       req.Items,
		Discount:    req.Discount,
		TaxRate:     req.TaxRate,
		TaxRequired: req.TaxRequired,
	})
	response.Success(c, http.StatusOK, "order_quote", gin.H{
		"subtotal":   t.Subtotal.StringFixed(minorUnits),
		"discount":   t.Discount.StringFixed(minorUnits),
		"tax_amount": t.TaxAmount.StringFixed(minorUnits),
		"total":      t.Total.StringFixed(minorUnits),
	})
}
