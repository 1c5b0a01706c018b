package handler

import (
	"net/http"

	"medilinko/internal/model"
	"medilinko/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler handles directory requests
type UserHandler struct {
	service   service.UserService
	qrService service.QRService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(s service.UserService, qr service.QRService) *UserHandler {
	return &UserHandler{service: s, qrService: qr}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	var filters model.UserFilters
	if roleParam := c.Query("role"); roleParam != "" {
		filters.Role = &roleParam
	}

	users, err := h.service.ListUsers(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err, "listing users")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.service.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "getting user by ID")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetUserByQRCodeID(c *gin.Context) {
	user, err := h.service.GetUserByQRCodeID(c.Request.Context(), c.Param("qrCodeId"))
	if err != nil {
		respondError(c, err, "getting user by QR code ID")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetQRURL(c *gin.Context) {
	info, err := h.qrService.GetQRInfo(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "getting QR URL")
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if err := bindStrictJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "creating user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req model.UpdateUserRequest
	if err := bindStrictJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err, "updating user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	user, err := h.service.DeleteUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "deleting user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully", "user": user})
}

// RegisterUserRoutes registers directory routes. They are open, as the web pages are.
func (h *UserHandler) RegisterUserRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/qr/:qrCodeId", h.GetUserByQRCodeID)
		users.GET("/:id", h.GetUser)
		users.GET("/:id/qr-url", h.GetQRURL)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}
}
