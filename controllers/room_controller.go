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

type RoomController struct {
	Rooms     *services.RoomService
	Inventory *services.InventoryService
}

func NewRoomController(rooms *services.RoomService, inventory *services.InventoryService) *RoomController {
	return &RoomController{Rooms: rooms, Inventory: inventory}
}

// GetRooms handles GET /api/rooms (staff listing, every state).
func (rc *RoomController) GetRooms(c *gin.Context) {
	rooms, err := rc.Rooms.GetAll(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("failed to list rooms")
		utils.JSONError(c, http.StatusInternalServerError, "INTERNAL", "failed to list rooms")
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rooms)
}

// GetAvailableRooms handles GET /api/rooms/available with optional
// capacity / price_min / price_max filters (prices in cents).
func (rc *RoomController) GetAvailableRooms(c *gin.Context) {
	var filter services.AvailableRoomsFilter
	if raw := c.Query("capacity"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Capacity = n
		}
	}
	if raw := c.Query("price_min"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.PriceMinCents = n
		}
	}
	if raw := c.Query("price_max"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.PriceMaxCents = n
		}
	}

	rooms, err := rc.Rooms.GetAvailable(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("failed to list available rooms")
		utils.JSONError(c, http.StatusInternalServerError, "INTERNAL", "failed to list available rooms")
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rooms)
}

// CreateRoom handles POST /api/rooms.
func (rc *RoomController) CreateRoom(c *gin.Context) {
	var room models.Room
	if err := c.ShouldBindJSON(&room); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		return
	}
	if userID, ok := middleware.UserID(c); ok {
		room.CreatorUserID = &userID
	}

	if err := rc.Rooms.Create(c.Request.Context(), &room); err != nil {
		if strings.HasPrefix(err.Error(), "validation:") {
			utils.JSONError(c, http.StatusUnprocessableEntity, "VALIDATION", err.Error())
			return
		}
		log.WithError(err).Error("failed to create room")
		utils.JSONError(c, http.StatusInternalServerError, "INTERNAL", "failed to create room")
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, room)
}

// UpdateRoom handles PATCH/PUT /api/rooms/:number. State changes are
// rejected here; use the state endpoint.
func (rc *RoomController) UpdateRoom(c *gin.Context) {
	number, ok := roomNumberParam(c)
	if !ok {
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		return
	}

	room, err := rc.Rooms.Update(c.Request.Context(), number, updates)
	if err != nil {
		if errors.Is(err, services.ErrRoomNotFound) {
			utils.JSONError(c, http.StatusNotFound, "ROOM_NOT_FOUND", "room does not exist")
			return
		}
		log.WithError(err).Error("failed to update room")
		utils.JSONError(c, http.StatusInternalServerError, "INTERNAL", "failed to update room")
		return
	}
	utils.JSONSuccess(c, http.StatusOK, room)
}

type RoomStateRequest struct {
	State string `json:"state" binding:"required"`
}

// UpdateRoomState handles PATCH /api/rooms/:number/state. Only the
// maintenance toggle is allowed: reservation states belong to the workflow
// engine.
func (rc *RoomController) UpdateRoomState(c *gin.Context) {
	number, ok := roomNumberParam(c)
	if !ok {
		return
	}

	var req RoomStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		return
	}

	var err error
	switch req.State {
	case models.RoomStateMaintenance:
		err = rc.Inventory.SetMaintenance(c.Request.Context(), number, true)
	case models.RoomStateAvailable:
		err = rc.Inventory.SetMaintenance(c.Request.Context(), number, false)
	default:
		utils.JSONError(c, http.StatusUnprocessableEntity, "VALIDATION", "only available/maintenance transitions are allowed here")
		return
	}
	if err != nil {
		if errors.Is(err, services.ErrRoomNotFound) {
			utils.JSONError(c, http.StatusNotFound, "ROOM_NOT_FOUND", "room does not exist")
			return
		}
		if errors.Is(err, services.ErrRoomUnavailable) {
			utils.JSONError(c, http.StatusConflict, "ROOM_UNAVAILABLE", "room state does not allow this transition")
			return
		}
		log.WithError(err).Error("failed to update room state")
		utils.JSONError(c, http.StatusInternalServerError, "INTERNAL", "failed to update room state")
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"number": number, "state": req.State})
}

// DeleteRoom handles DELETE /api/rooms/:number.
func (rc *RoomController) DeleteRoom(c *gin.Context) {
	number, ok := roomNumberParam(c)
	if !ok {
		return
	}

	if err := rc.Rooms.Delete(c.Request.Context(), number); err != nil {
		if errors.Is(err, services.ErrRoomNotFound) {
			utils.JSONError(c, http.StatusNotFound, "ROOM_NOT_FOUND", "room does not exist")
			return
		}
		if errors.Is(err, services.ErrRoomUnavailable) {
			utils.JSONError(c, http.StatusConflict, "ROOM_UNAVAILABLE", "room has an active reservation")
			return
		}
		log.WithError(err).Error("failed to delete room")
		utils.JSONError(c, http.StatusInternalServerError, "INTERNAL", "failed to delete room")
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"deleted": number})
}

func roomNumberParam(c *gin.Context) (uint, bool) {
	number, err := strconv.ParseUint(c.Param("number"), 10, 64)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid room number")
		return 0, false
	}
	return uint(number), true
}
