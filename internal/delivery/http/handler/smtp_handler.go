package handler

import (
	"net/http"

	"issue-tracker/internal/usecase/mailconfig"
	"issue-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
)

type SMTPConfigurationHandler struct {
	service *mailconfig.Service
}

func NewSMTPConfigurationHandler(service *mailconfig.Service) *SMTPConfigurationHandler {
	return &SMTPConfigurationHandler{service: service}
}

func (h *SMTPConfigurationHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	group := router.Group("/smtp-configurations")
	{
		group.GET("", h.List)
		group.POST("", h.Create)
		group.PUT("/:id", h.Update)
		group.DELETE("/:id", h.Delete)
	}
}

func (h *SMTPConfigurationHandler) List(c *gin.Context) {
	configs, err := h.service.List(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "SMTP configurations retrieved successfully", configs)
}

func (h *SMTPConfigurationHandler) Create(c *gin.Context) {
	var req mailconfig.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "SMTP configuration created successfully", created)
}

func (h *SMTPConfigurationHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req mailconfig.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "SMTP configuration updated successfully", updated)
}

func (h *SMTPConfigurationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "SMTP configuration deleted successfully", nil)
}
