package lcu

import "encoding/json"

// Status is the connection state toward the local client. Exactly one value
// is live at a time, owned by the Monitor.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusError
)

var statusNames = map[Status]string{
	StatusDisconnected: "disconnected",
	StatusConnecting:   "connecting",
	StatusConnected:    "connected",
	StatusError:        "error",
}

var statusFromName = map[string]Status{
	"disconnected": StatusDisconnected,
	"connecting":   StatusConnecting,
	"connected":    StatusConnected,
	"error":        StatusError,
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if v, ok := statusFromName[name]; ok {
		*s = v
	}
	return nil
}
