package hub

import "encoding/json"

// Message is the tagged JSON shape pushed to channel subscribers.
type Message struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
	Channel string `json:"channel,omitempty"`
}

const (
	typeLogMessage   = "log-message"
	typeStatusUpdate = "status-update"
	typeJoined       = "joined"
)

func logMessage(text string) []byte {
	return mustMarshal(Message{Type: typeLogMessage, Message: text})
}

func statusUpdate(status string) []byte {
	return mustMarshal(Message{Type: typeStatusUpdate, Status: status})
}

func joinedMessage(channel string) []byte {
	return mustMarshal(Message{Type: typeJoined, Channel: channel, Message: "Joined " + channel})
}

func mustMarshal(m Message) []byte {
	b, err := json.Marshal(m)
	if err != nil {
		// Message carries only strings; this cannot fail.
		panic(err)
	}
	return b
}
