package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/opsboard/billing-dashboard/internal/billing"
	"github.com/opsboard/billing-dashboard/internal/reportcache"
)

type stubReportBuilder struct {
	buildFn func(ctx context.Context, service billing.ServiceKey, period billing.PeriodKey) (billing.UsageData, error)
}

func (s *stubReportBuilder) BuildReport(ctx context.Context, service billing.ServiceKey, period billing.PeriodKey) (billing.UsageData, error) {
	return s.buildFn(ctx, service, period)
}

func newBillingTestApp(t *testing.T, reports reportBuilder, cache *reportcache.Cache) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	h := &handler{
		pages:   []pageResponse{{Service: "firebase", Title: "Firebase Usage"}},
		reports: reports,
		cache:   cache,
	}
	h.registerBillingRoutes(app.Group("/api"))
	return app
}

func sampleReport(service billing.ServiceKey, period billing.PeriodKey) billing.UsageData {
	return billing.UsageData{
		Service:          service,
		Period:           period,
		Currency:         "USD",
		StartDate:        "2025-06-01",
		EndDate:          "2025-06-07",
		TotalCost:        7,
		AverageDailyCost: 1,
		GeneratedAt:      time.Now().UTC().Format(time.RFC3339),
	}
}

func TestBillingServicesListsConfiguredPages(t *testing.T) {
	app := newBillingTestApp(t, nil, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/billing/services", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Services []pageResponse `json:"services"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Services, 1)
	require.Equal(t, "firebase", payload.Services[0].Service)
}

func TestBillingUsageRejectsUnknownEnums(t *testing.T) {
	called := false
	builder := &stubReportBuilder{
		buildFn: func(context.Context, billing.ServiceKey, billing.PeriodKey) (billing.UsageData, error) {
			called = true
			return billing.UsageData{}, nil
		},
	}
	app := newBillingTestApp(t, builder, nil)

	for _, target := range []string{
		"/api/billing/usage?service=dropbox&period=30d",
		"/api/billing/usage?service=firebase&period=45d",
		"/api/billing/usage",
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
	}
	require.False(t, called)
}

func TestBillingUsageDefaultsPeriodTo30Days(t *testing.T) {
	var gotPeriod billing.PeriodKey
	builder := &stubReportBuilder{
		buildFn: func(_ context.Context, service billing.ServiceKey, period billing.PeriodKey) (billing.UsageData, error) {
			gotPeriod = period
			return sampleReport(service, period), nil
		},
	}
	app := newBillingTestApp(t, builder, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/billing/usage?service=gemini", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, billing.Period30d, gotPeriod)

	var report billing.UsageData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	require.Equal(t, billing.ServiceGemini, report.Service)
}

func TestBillingUsageMapsProducerFailureToBadGateway(t *testing.T) {
	builder := &stubReportBuilder{
		buildFn: func(context.Context, billing.ServiceKey, billing.PeriodKey) (billing.UsageData, error) {
			return billing.UsageData{}, errors.New("export query timed out")
		},
	}
	app := newBillingTestApp(t, builder, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/billing/usage?service=firebase&period=7d", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "billing export unavailable")
}

func TestBillingUsageServesCachedReportWithoutRebuilding(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := reportcache.New(client, time.Minute)

	builds := 0
	builder := &stubReportBuilder{
		buildFn: func(_ context.Context, service billing.ServiceKey, period billing.PeriodKey) (billing.UsageData, error) {
			builds++
			return sampleReport(service, period), nil
		},
	}
	app := newBillingTestApp(t, builder, cache)

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/billing/usage?service=firebase&period=7d", nil))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	require.Equal(t, 1, builds)
}
