package handler

import (
	"errors"

	"junktrunk-api/internal/model"
	"junktrunk-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	service service.ScanService
}

func NewProductHandler(s service.ScanService) *ProductHandler {
	return &ProductHandler{service: s}
}

// formatPrice renders the client-supplied asking price as "$12.50", or nil.
func formatPrice(p *decimal.Decimal) interface{} {
	if p == nil {
		return nil
	}
	return "$" + p.StringFixed(2)
}

func nonNilPrices(prices []model.PriceEntry) []model.PriceEntry {
	if prices == nil {
		return []model.PriceEntry{}
	}
	return prices
}

// Scan handles POST /api/products/scan.
func (h *ProductHandler) Scan(c *fiber.Ctx) error {
	var req service.ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	// Token identity (set by OptionalAuth) wins over the body user_id.
	if uid, ok := c.Locals("user_id").(string); ok {
		if parsed, err := uuid.Parse(uid); err == nil {
			req.UserID = &parsed
		}
	}

	result, err := h.service.Scan(c.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBarcodeRequired):
			return c.Status(400).JSON(fiber.Map{"error": "Barcode is required"})
		case errors.Is(err, service.ErrProductNotFound):
			// Not an HTTP error: the client shows its own not-found flow.
			return c.JSON(fiber.Map{
				"success": false,
				"error":   "PRODUCT_NOT_FOUND",
				"message": "Product not found in any API",
				"barcode": req.Barcode,
			})
		default:
			return c.Status(500).JSON(fiber.Map{"error": "Database error"})
		}
	}

	product := result.Product
	return c.JSON(fiber.Map{
		"success": true,
		"product": fiber.Map{
			"id":                   product.ID,
			"barcode":              product.Barcode,
			"name":                 product.Name,
			"price":                formatPrice(product.Price),
			"image":                result.Image,
			"description":          product.Description,
			"suggestions":          []string{},
			"lastScannedAt":        result.LastScannedAt,
			"lastScannedLatitude":  result.LastScannedLatitude,
			"lastScannedLongitude": result.LastScannedLongitude,
			"prices":               nonNilPrices(result.Prices),
		},
	})
}

// HistoryToday handles GET /api/products/history/today.
func (h *ProductHandler) HistoryToday(c *fiber.Ctx) error {
	var userID *uuid.UUID
	if raw := c.Query("user_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid user_id"})
		}
		userID = &parsed
	}

	entries, err := h.service.HistoryToday(c.UserContext(), userID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Database error"})
	}

	scans := make([]fiber.Map, 0, len(entries))
	for _, entry := range entries {
		scans = append(scans, fiber.Map{
			"scanId":    entry.ScanID,
			"scannedAt": entry.ScannedAt,
			"latitude":  entry.Latitude,
			"longitude": entry.Longitude,
			"userId":    entry.UserID,
			"product": fiber.Map{
				"id":      entry.Product.ID,
				"barcode": entry.Product.Barcode,
				"name":    entry.Product.Name,
				"image":   entry.Product.Image,
				"prices":  nonNilPrices(entry.Product.Prices),
			},
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"scans":   scans,
		"count":   len(scans),
	})
}

// GetProduct handles GET /api/products/:id.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	product, err := h.service.GetProduct(id)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Product not found"})
	}

	return c.JSON(fiber.Map{
		"id":          product.ID,
		"barcode":     product.Barcode,
		"name":        product.Name,
		"price":       formatPrice(product.Price),
		"image":       product.ImageURL,
		"description": product.Description,
		"suggestions": []string{},
		"prices":      nonNilPrices(product.Prices),
	})
}

// UpdateProduct handles PUT /api/products/:id (partial update).
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req service.ProductUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.UpdateProduct(id, &req); err != nil {
		if errors.Is(err, service.ErrNoFieldsToUpdate) {
			return c.Status(400).JSON(fiber.Map{"error": "No fields to update"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update product"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Product updated successfully"})
}
