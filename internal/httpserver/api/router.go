// Package api exposes the dashboard's JSON surface: billing usage reports
// for the panel pages and image management for the media pages.
package api

import (
	"context"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/opsboard/billing-dashboard/internal/app"
	"github.com/opsboard/billing-dashboard/internal/billing"
	"github.com/opsboard/billing-dashboard/internal/images"
	"github.com/opsboard/billing-dashboard/internal/observability"
	"github.com/opsboard/billing-dashboard/internal/reportcache"
)

// reportBuilder produces a usage report for one panel selection.
type reportBuilder interface {
	BuildReport(ctx context.Context, service billing.ServiceKey, period billing.PeriodKey) (billing.UsageData, error)
}

// imageService is the slice of the image service the handlers use.
type imageService interface {
	Upload(ctx context.Context, params images.UploadParams) (images.Record, error)
	Get(ctx context.Context, id uuid.UUID) (images.Record, error)
	Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, images.Record, error)
	List(ctx context.Context, opts images.ListOptions) (images.ListResult, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type handler struct {
	pages   []pageResponse
	reports reportBuilder
	cache   *reportcache.Cache
	images  imageService
	obs     *observability.Provider
}

// Register wires the dashboard API routes onto the Fiber app.
func Register(fiberApp *fiber.App, container *app.Container) {
	if fiberApp == nil || container == nil {
		return
	}

	h := &handler{
		cache: container.ReportCache,
		obs:   container.Observability,
	}
	if container.Reports != nil {
		h.reports = container.Reports
	}
	if container.Images != nil {
		h.images = container.Images
	}
	if container.Config != nil {
		for _, page := range container.Config.Reporting.Pages {
			h.pages = append(h.pages, pageResponse{
				Service:     page.Service,
				Title:       page.Title,
				Description: page.Description,
			})
		}
	}

	group := fiberApp.Group("/api")
	h.registerBillingRoutes(group)
	h.registerImageRoutes(group)
}
