package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v3"
)

// WebRTCController hands clients the ICE servers to build their
// RTCPeerConnection with. Media never flows through this server.
type WebRTCController struct {
	iceServers []webrtc.ICEServer
}

func NewWebRTCController(iceServers []webrtc.ICEServer) *WebRTCController {
	return &WebRTCController{iceServers: iceServers}
}

func (c *WebRTCController) ICEServers(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"ice_servers": c.iceServers})
}
