package streaming

// Message type constants matching the console/robot protocol.
const (
	TypeStickData = "stick_data"
	TypeResponse  = "response"
	TypeError     = "error"
)

// StickState is one surface's sampled state: normalized displacement in
// [-1,1] per axis plus a coarse compass direction label.
type StickState struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Direction string  `json:"direction"`
}

// ControlFrameData pairs the drive and turret stick states.
type ControlFrameData struct {
	Drive  StickState `json:"drive"`
	Turret StickState `json:"turret"`
}

// ControlFrame is the outbound message sent once per sample tick.
// Frames carry replacement state, not events: each frame supersedes the
// previous one and missed frames are never resent.
type ControlFrame struct {
	Type string           `json:"type"`
	Data ControlFrameData `json:"data"`
}

// NewControlFrame builds a stick_data frame from both surface states.
func NewControlFrame(drive, turret StickState) ControlFrame {
	return ControlFrame{
		Type: TypeStickData,
		Data: ControlFrameData{Drive: drive, Turret: turret},
	}
}

// Envelope is the minimally-decoded form of an inbound message, carrying
// only the type discriminant used for routing.
type Envelope struct {
	Type string `json:"type"`
}

// ErrorPayload is the robot's error report.
type ErrorPayload struct {
	Type    string `json:"type"` // always "error"
	Message string `json:"message"`
}
