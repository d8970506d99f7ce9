package hub

// MessageType labels envelopes pushed to consumer windows.
type MessageType string

const (
	MsgStatus      MessageType = "status"
	MsgGameflow    MessageType = "gameflow"
	MsgChampSelect MessageType = "champselect"
	MsgSummoner    MessageType = "summoner"
	MsgOverlay     MessageType = "overlay"
)

type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}
