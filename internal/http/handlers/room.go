package handlers

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"partyrooms/internal/domain"
)

const roomHistoryLimit = 200

// Room - единая точка /api/room?action=...
// GET: rooms, room, history. POST: create, join, ready, start, action, chat, leave
func (h *Handler) Room(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		return
	}
	action := c.Query("action")

	if c.Request.Method == http.MethodGet {
		switch action {
		case "rooms":
			h.listRooms(c)
		case "room":
			h.roomSnapshot(c, p)
		case "history":
			h.roomHistory(c)
		default:
			h.unknownAction(c, action)
		}
		return
	}

	switch action {
	case "create":
		h.createRoom(c, p)
	case "join":
		h.joinRoom(c, p)
	case "ready":
		h.readyRoom(c, p)
	case "start":
		h.startRoom(c, p)
	case "action":
		h.submitAction(c, p)
	case "chat":
		h.chat(c, p)
	case "leave":
		h.leaveRoom(c, p)
	default:
		h.unknownAction(c, action)
	}
}

func (h *Handler) unknownAction(c *gin.Context, action string) {
	if slices.Contains([]string{"rooms", "room", "history", "create", "join", "ready", "start", "action", "chat", "leave"}, action) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method_not_allowed", "message": "wrong method for " + action})
		return
	}
	badRequest(c, "unknown action")
}

// roomID из query, для POST можно и в теле
func roomID(c *gin.Context, body string) string {
	if id := strings.TrimSpace(c.Query("room_id")); id != "" {
		return id
	}
	return strings.TrimSpace(body)
}

func (h *Handler) listRooms(c *gin.Context) {
	list := make([]domain.RoomSummary, 0)
	for sum := range h.Hub.Rooms() {
		list = append(list, sum)
	}
	c.JSON(http.StatusOK, gin.H{"rooms": list})
}

func (h *Handler) roomSnapshot(c *gin.Context, p domain.Principal) {
	id := roomID(c, "")
	if id == "" {
		badRequest(c, "room_id required")
		return
	}
	snap, err := h.Hub.Snapshot(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) roomHistory(c *gin.Context) {
	id := roomID(c, "")
	if id == "" {
		badRequest(c, "room_id required")
		return
	}
	if h.AuditService == nil {
		c.JSON(http.StatusOK, gin.H{"history": []any{}})
		return
	}
	logs, err := h.AuditService.GetRoomAuditLogs(c.Request.Context(), id, roomHistoryLimit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": logs})
}

func (h *Handler) createRoom(c *gin.Context, p domain.Principal) {
	var req domain.RoomConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid room config")
		return
	}
	snap, err := h.Hub.Create(c.Request.Context(), p, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

type roomRef struct {
	RoomID string `json:"room_id"`
	Code   string `json:"code"`
}

// тело необязательно, room_id может прийти в query
func bindRef(c *gin.Context) (roomRef, bool) {
	var ref roomRef
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&ref); err != nil {
			badRequest(c, "invalid request body")
			return ref, false
		}
	}
	ref.RoomID = roomID(c, ref.RoomID)
	return ref, true
}

func (h *Handler) joinRoom(c *gin.Context, p domain.Principal) {
	ref, ok := bindRef(c)
	if !ok {
		return
	}
	if ref.RoomID == "" && strings.TrimSpace(ref.Code) == "" {
		badRequest(c, "room_id or code required")
		return
	}
	snap, err := h.Hub.Join(c.Request.Context(), p, ref.RoomID, ref.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) readyRoom(c *gin.Context, p domain.Principal) {
	ref, ok := bindRef(c)
	if !ok {
		return
	}
	if ref.RoomID == "" {
		badRequest(c, "room_id required")
		return
	}
	snap, err := h.Hub.Ready(c.Request.Context(), p, ref.RoomID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) startRoom(c *gin.Context, p domain.Principal) {
	ref, ok := bindRef(c)
	if !ok {
		return
	}
	if ref.RoomID == "" {
		badRequest(c, "room_id required")
		return
	}
	snap, err := h.Hub.Start(c.Request.Context(), p, ref.RoomID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) submitAction(c *gin.Context, p domain.Principal) {
	var req struct {
		RoomID string `json:"room_id"`
		domain.ActionInput
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid action")
		return
	}
	id := roomID(c, req.RoomID)
	if id == "" {
		badRequest(c, "room_id required")
		return
	}
	tally, err := h.Hub.Submit(c.Request.Context(), p, id, req.ActionInput)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tally": tally})
}

func (h *Handler) chat(c *gin.Context, p domain.Principal) {
	var req struct {
		RoomID string `json:"room_id"`
		Text   string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid message")
		return
	}
	id := roomID(c, req.RoomID)
	if id == "" {
		badRequest(c, "room_id required")
		return
	}
	msg, err := h.Hub.Chat(c.Request.Context(), p, id, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (h *Handler) leaveRoom(c *gin.Context, p domain.Principal) {
	ref, ok := bindRef(c)
	if !ok {
		return
	}
	if ref.RoomID == "" {
		badRequest(c, "room_id required")
		return
	}
	if err := h.Hub.Leave(c.Request.Context(), p, ref.RoomID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
