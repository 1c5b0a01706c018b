package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"medilinko/internal/service"
	"medilinko/internal/utils"

	"github.com/gin-gonic/gin"
)

// QRHandler serves QR codes for profile URLs
type QRHandler struct {
	service service.QRService
}

// NewQRHandler creates a new QRHandler
func NewQRHandler(s service.QRService) *QRHandler {
	return &QRHandler{service: s}
}

func (h *QRHandler) GenerateForUser(c *gin.Context) {
	qr, err := h.service.GenerateForUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err, "generating QR code")
		return
	}
	c.JSON(http.StatusOK, qr)
}

func (h *QRHandler) GenerateForQRCodeID(c *gin.Context) {
	qr, err := h.service.GenerateForQRCodeID(c.Request.Context(), c.Param("qrCodeId"))
	if err != nil {
		respondError(c, err, "generating QR code by QR code ID")
		return
	}
	c.JSON(http.StatusOK, qr)
}

// Image returns the QR code as a PNG download; size and margin are optional query parameters
func (h *QRHandler) Image(c *gin.Context) {
	opts := utils.DefaultQROptions
	if sizeParam := c.Query("size"); sizeParam != "" {
		size, err := strconv.Atoi(sizeParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid size, must be an integer"})
			return
		}
		opts.Size = size
	}
	if marginParam := c.Query("margin"); marginParam != "" {
		margin, err := strconv.Atoi(marginParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid margin, must be an integer"})
			return
		}
		opts.Margin = margin
	}

	qrCodeID := c.Param("qrCodeId")
	img, err := h.service.ImageForQRCodeID(c.Request.Context(), qrCodeID, opts)
	if err != nil {
		respondError(c, err, "rendering QR image")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "medilinko-"+qrCodeID+".png"))
	c.Data(http.StatusOK, "image/png", img)
}

func (h *QRHandler) Backfill(c *gin.Context) {
	report, err := h.service.GenerateMissingTokens(c.Request.Context())
	if err != nil {
		respondError(c, err, "backfilling QR codes")
		return
	}
	c.JSON(http.StatusOK, report)
}

// RegisterQRRoutes registers QR routes; the backfill is admin only
func (h *QRHandler) RegisterQRRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	qr := rg.Group("/qr")
	{
		qr.GET("/generate/:userId", h.GenerateForUser)
		qr.GET("/generate-by-qrid/:qrCodeId", h.GenerateForQRCodeID)
		qr.GET("/image/:qrCodeId", h.Image)
	}

	adminRoutes := rg.Group("/admin")
	adminRoutes.Use(authMW)
	adminRoutes.Use(adminMW)
	{
		adminRoutes.POST("/qr/backfill", h.Backfill)
	}
}
