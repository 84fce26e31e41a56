package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/opsboard/billing-dashboard/internal/billing"
	"github.com/opsboard/billing-dashboard/internal/httpserver/httputil"
)

// pageResponse is the page-level configuration a dashboard route renders:
// which service the panel covers plus its title and description copy.
type pageResponse struct {
	Service     string `json:"service"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (h *handler) registerBillingRoutes(group fiber.Router) {
	group.Get("/billing/services", h.billingServices)
	group.Get("/billing/usage", h.billingUsage)
}

func (h *handler) billingServices(c *fiber.Ctx) error {
	pages := h.pages
	if pages == nil {
		pages = []pageResponse{}
	}
	return c.JSON(fiber.Map{"services": pages})
}

func (h *handler) billingUsage(c *fiber.Ctx) error {
	service, err := billing.ParseServiceKey(c.Query("service"))
	if err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, err.Error())
	}
	periodParam := strings.TrimSpace(c.Query("period"))
	if periodParam == "" {
		periodParam = string(billing.Period30d)
	}
	period, err := billing.ParsePeriodKey(periodParam)
	if err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, err.Error())
	}

	if report, ok := h.cache.Get(c.Context(), service, period); ok {
		h.obs.RecordReportCache(true)
		return c.JSON(report)
	}
	h.obs.RecordReportCache(false)

	if h.reports == nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "report service unavailable")
	}
	start := time.Now()
	report, err := h.reports.BuildReport(c.Context(), service, period)
	if err != nil {
		if errors.Is(err, billing.ErrUnknownService) || errors.Is(err, billing.ErrUnknownPeriod) {
			return httputil.WriteError(c, fiber.StatusBadRequest, err.Error())
		}
		return httputil.WriteError(c, fiber.StatusBadGateway, "billing export unavailable")
	}
	h.obs.RecordReportBuild(string(service), string(period), time.Since(start))

	h.cache.Set(c.Context(), report)
	return c.JSON(report)
}
