package handler

// BroadcastRoomEvent implements service.Broadcaster using the WebSocket hub.
func (h *Hub) BroadcastRoomEvent(roomID int, eventType string, data any) {
	h.BroadcastToRoom(roomID, WSEvent{
		Type:   eventType,
		GameID: roomID,
		Data:   data,
	})
}
