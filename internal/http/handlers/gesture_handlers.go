package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/masscrop/internal/models"
	"github.com/phambaophuc/masscrop/internal/services/interaction"
	"github.com/phambaophuc/masscrop/internal/services/session"
)

// Gesture endpoints drive the crop box of the selected item from raw
// pointer events. The region is written to the item only on end.

func (h *SessionHandler) StartGesture(c *gin.Context) {
	var req models.GestureStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.store.BeginGesture(c.Param("id"), interaction.Handle(req.Handle), interaction.Point{X: req.X, Y: req.Y})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, gestureResponse(state))
}

func (h *SessionHandler) MoveGesture(c *gin.Context) {
	var req models.GestureMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.store.MoveGesture(
		c.Param("id"),
		interaction.Point{X: req.X, Y: req.Y},
		interaction.Size{Width: req.ContainerWidth, Height: req.ContainerHeight},
	)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, gestureResponse(state))
}

func (h *SessionHandler) EndGesture(c *gin.Context) {
	state, err := h.store.EndGesture(c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, gestureResponse(state))
}

func gestureResponse(state session.GestureState) models.GestureResponse {
	return models.GestureResponse{
		State:  state.State.String(),
		ItemID: state.ItemID,
		Region: state.Region,
	}
}
