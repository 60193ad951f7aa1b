package controllers

import (
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

type FloorController struct {
	Floors *services.FloorService
}

func NewFloorController(svc *services.FloorService) *FloorController {
	return &FloorController{Floors: svc}
}

func (fc *FloorController) GetFloors(c *gin.Context) {
	floors, err := fc.Floors.GetAll(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("failed to list floors")
		utils.JSONError(c, http.StatusInternalServerError, "INTERNAL", "failed to list floors")
		return
	}
	utils.JSONSuccess(c, http.StatusOK, floors)
}

func (fc *FloorController) CreateFloor(c *gin.Context) {
	var floor models.Floor
	if err := c.ShouldBindJSON(&floor); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		return
	}
	if userID, ok := middleware.UserID(c); ok {
		floor.CreatorUserID = &userID
	}

	if err := fc.Floors.Create(c.Request.Context(), &floor); err != nil {
		if strings.HasPrefix(err.Error(), "validation:") {
			utils.JSONError(c, http.StatusUnprocessableEntity, "VALIDATION", err.Error())
			return
		}
		log.WithError(err).Error("failed to create floor")
		utils.JSONError(c, http.StatusInternalServerError, "INTERNAL", "failed to create floor")
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, floor)
}

type UpdateFloorRequest struct {
	Name string `json:"name" binding:"required"`
}

func (fc *FloorController) UpdateFloor(c *gin.Context) {
	number, err := strconv.ParseUint(c.Param("number"), 10, 64)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid floor number")
		return
	}

	var req UpdateFloorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		return
	}

	floor, err := fc.Floors.Update(c.Request.Context(), uint(number), req.Name)
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, floor)
}

func (fc *FloorController) DeleteFloor(c *gin.Context) {
	number, err := strconv.ParseUint(c.Param("number"), 10, 64)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid floor number")
		return
	}

	if err := fc.Floors.Delete(c.Request.Context(), uint(number)); err != nil {
		utils.JSONError(c, http.StatusConflict, "CONFLICT", err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"deleted": number})
}
