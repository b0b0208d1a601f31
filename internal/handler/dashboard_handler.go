package handler

import (
	"strconv"

	"junktrunk-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.StatsService
}

func NewDashboardHandler(s service.StatsService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetScanActivity returns per-day scan counts for charts
// Query params: days (default 7)
func (h *DashboardHandler) GetScanActivity(c *fiber.Ctx) error {
	daysStr := c.Query("days", "7")
	days, err := strconv.Atoi(daysStr)
	if err != nil || days <= 0 {
		days = 7
	}

	data, err := h.service.ScanActivity(days)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch scan activity"})
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetStats returns overview statistics
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.service.Overview()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch dashboard stats"})
	}

	return c.JSON(stats)
}
