package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/classboard/internal/api/http/converter"
	"github.com/immxrtalbeast/classboard/internal/repository"
	"github.com/immxrtalbeast/classboard/internal/service"
)

type RoomController struct {
	rooms service.CanvasInteractor
}

func NewRoomController(rooms service.CanvasInteractor) *RoomController {
	return &RoomController{rooms: rooms}
}

func (c *RoomController) ListRooms(ctx *gin.Context) {
	rooms, err := c.rooms.ListRooms(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"rooms": converter.RoomsToApi(rooms)})
}

func (c *RoomController) GetRoom(ctx *gin.Context) {
	room, err := c.rooms.GetRoom(ctx.Request.Context(), ctx.Param("roomID"))
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"room": converter.RoomToApi(room)})
}

func (c *RoomController) GetSnapshot(ctx *gin.Context) {
	snapshot, err := c.rooms.Snapshot(ctx.Request.Context(), ctx.Param("roomID"))
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, snapshot)
}

func statusFor(err error) int {
	if errors.Is(err, repository.ErrRoomNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
