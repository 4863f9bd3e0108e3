package handlers

import (
	"context"
	"time"

	"github.com/ashmitsharp/erp-api/internal/database/db"
	"github.com/ashmitsharp/erp-api/internal/services"
	"github.com/ashmitsharp/erp-api/internal/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SummarySource interface {
	Stats(ctx context.Context, userID uuid.UUID, from, to time.Time) (services.Stats, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]db.Account, error)
}

type SummaryHandler struct {
	source SummarySource
}

func NewSummaryHandler(source SummarySource) *SummaryHandler {
	return &SummaryHandler{source: source}
}

type NetFlowTrendPoint struct {
	Period  string          `json:"period"`
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
	NetFlow decimal.Decimal `json:"net_flow"`
}

type SummaryResponse struct {
	KPIs         services.Stats      `json:"kpis"`
	TotalBalance decimal.Decimal     `json:"total_balance"`
	NetFlowTrend []NetFlowTrendPoint `json:"net_flow_trend"`
	FromDate     string              `json:"from_date"`
	ToDate       string              `json:"to_date"`
	GroupBy      string              `json:"group_by"`
}

// GetSummary handles GET /v1/summary
// Query params: from (date), to (date), group_by (month|year)
func (h *SummaryHandler) GetSummary(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	fromDate, toDate, err := dateRange(c, today())
	if err != nil {
		return err
	}

	groupBy := c.Query("group_by", "month")
	if groupBy != "month" && groupBy != "year" {
		return utils.NewBadRequestError("Invalid group_by parameter. Must be one of: month, year", nil)
	}

	kpis, err := h.source.Stats(c.Context(), userID, fromDate, toDate)
	if err != nil {
		return err
	}

	accounts, err := h.source.ListAccounts(c.Context(), userID)
	if err != nil {
		return err
	}
	total := decimal.Zero
	for _, a := range accounts {
		if a.Active {
			total = total.Add(a.CurrentBalance)
		}
	}

	trend := make([]NetFlowTrendPoint, 0)
	for _, p := range periods(fromDate, toDate, groupBy) {
		stats, err := h.source.Stats(c.Context(), userID, p.from, p.to)
		if err != nil {
			return err
		}
		trend = append(trend, NetFlowTrendPoint{
			Period:  p.label,
			Inflow:  stats.Income,
			Outflow: stats.Expense,
			NetFlow: stats.Net,
		})
	}

	return c.JSON(SummaryResponse{
		KPIs:         kpis,
		TotalBalance: total,
		NetFlowTrend: trend,
		FromDate:     fromDate.Format(dateLayout),
		ToDate:       toDate.Format(dateLayout),
		GroupBy:      groupBy,
	})
}

type period struct {
	label    string
	from, to time.Time
}

// periods splits [from, to] into calendar months or years, clipped to the
// range on both ends.
func periods(from, to time.Time, groupBy string) []period {
	var out []period
	for start := from; !start.After(to); {
		var next time.Time
		var label string
		if groupBy == "year" {
			next = time.Date(start.Year()+1, 1, 1, 0, 0, 0, 0, start.Location())
			label = start.Format("2006")
		} else {
			next = time.Date(start.Year(), start.Month()+1, 1, 0, 0, 0, 0, start.Location())
			label = start.Format("2006-01")
		}
		end := next.AddDate(0, 0, -1)
		if end.After(to) {
			end = to
		}
		out = append(out, period{label: label, from: start, to: end})
		start = next
	}
	return out
}
