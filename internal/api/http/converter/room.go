package converter

import (
	"time"

	"github.com/immxrtalbeast/classboard/internal/service"
)

type RoomResponse struct {
	ID            string    `json:"id"`
	Objects       int       `json:"objects"`
	Locked        bool      `json:"locked"`
	HasBackground bool      `json:"has_background"`
	BoardMembers  int       `json:"board_members"`
	VideoMembers  int       `json:"video_members"`
	CreatedAt     time.Time `json:"created_at"`
	LastActive    time.Time `json:"last_active"`
}

func RoomToApi(r *service.RoomInfo) *RoomResponse {
	return &RoomResponse{
		ID:            r.ID,
		Objects:       r.Objects,
		Locked:        r.Locked,
		HasBackground: r.HasBackground,
		BoardMembers:  r.BoardMembers,
		VideoMembers:  r.VideoMembers,
		CreatedAt:     r.CreatedAt,
		LastActive:    r.LastActive,
	}
}

func RoomsToApi(rooms []*service.RoomInfo) []*RoomResponse {
	result := make([]*RoomResponse, 0, len(rooms))
	for _, r := range rooms {
		result = append(result, RoomToApi(r))
	}
	return result
}
