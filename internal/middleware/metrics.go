package middleware

import (
	"strings"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ActiveWebSockets is the number of open admin live-feed connections.
var ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "lukeblog_active_websockets",
	Help: "Number of open admin live feed websocket connections",
})

// InitMetrics creates the request metrics collector for serviceName.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.NewWithRegistry(prometheus.DefaultRegisterer, serviceName, "lukeblog", "http", nil)
}

// MetricsMiddleware records request metrics, skipping the scrape endpoint itself
// and uploaded media.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	handler := prom.Middleware
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/metrics" || strings.HasPrefix(path, "/media/") {
			return c.Next()
		}
		return handler(c)
	}
}
