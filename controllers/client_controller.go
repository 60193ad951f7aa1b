package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"hms-backend/middleware"
	"hms-backend/models"
	"hms-backend/services"
	"hms-backend/utils"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type ClientController struct {
	Clients   *services.ClientService
	Approvals *services.ApprovalService
}

func NewClientController(clients *services.ClientService, approvals *services.ApprovalService) *ClientController {
	return &ClientController{Clients: clients, Approvals: approvals}
}

func (cc *ClientController) GetClients(c *gin.Context) {
	pendingOnly := c.Query("pending") == "true"
	clients, err := cc.Clients.GetAll(c.Request.Context(), pendingOnly)
	if err != nil {
		log.WithError(err).Error("failed to list clients")
		utils.JSONError(c, http.StatusInternalServerError, "INTERNAL", "failed to list clients")
		return
	}
	utils.JSONSuccess(c, http.StatusOK, clients)
}

func (cc *ClientController) CreateClient(c *gin.Context) {
	var client models.Client
	if err := c.ShouldBindJSON(&client); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		return
	}

	if err := cc.Clients.Create(c.Request.Context(), &client); err != nil {
		if strings.HasPrefix(err.Error(), "validation:") {
			utils.JSONError(c, http.StatusUnprocessableEntity, "VALIDATION", err.Error())
			return
		}
		log.WithError(err).Error("failed to create client")
		utils.JSONError(c, http.StatusInternalServerError, "INTERNAL", "failed to create client")
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, client)
}

// ApproveClient handles POST /api/clients/:id/approve. Approval unlocks the
// reservation workflow for the client.
func (cc *ClientController) ApproveClient(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "MISSING_IDENTITY", "staff identity required")
		return
	}
	allowed, err := cc.Approvals.HasPermission(c.Request.Context(), userID, "clientManagement.approve")
	if err != nil {
		log.WithError(err).Error("permission check failed")
		utils.JSONError(c, http.StatusInternalServerError, "INTERNAL", "permission check failed")
		return
	}
	if !allowed {
		utils.JSONError(c, http.StatusForbidden, "FORBIDDEN", "missing clientManagement.approve permission")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid client id")
		return
	}

	client, err := cc.Approvals.Approve(c.Request.Context(), uint(id), userID)
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			utils.JSONError(c, http.StatusNotFound, "NOT_FOUND", "client not found")
			return
		}
		log.WithError(err).Error("failed to approve client")
		utils.JSONError(c, http.StatusInternalServerError, "INTERNAL", "failed to approve client")
		return
	}
	utils.JSONSuccess(c, http.StatusOK, client)
}

func (cc *ClientController) DeleteClient(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid client id")
		return
	}

	if err := cc.Clients.Delete(c.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			utils.JSONError(c, http.StatusNotFound, "NOT_FOUND", "client not found")
			return
		}
		log.WithError(err).Error("failed to delete client")
		utils.JSONError(c, http.StatusInternalServerError, "INTERNAL", "failed to delete client")
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"deleted": id})
}
