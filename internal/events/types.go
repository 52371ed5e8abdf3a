package events

// Event type constants for kelindar/event.
const (
	TypeFormatNegotiated uint32 = iota + 1
	TypeNegotiationFailed
	TypeEndOfStream
	TypeOverlaySettingsChanged
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// FormatNegotiatedEvent is published when a stream format has been accepted
// and the overlay geometry recomputed.
type FormatNegotiatedEvent struct {
	StreamID  string `json:"stream_id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	FrameRate int    `json:"framerate"`
	Diameter  int    `json:"diameter"`
	Color     string `json:"color"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for FormatNegotiatedEvent.
func (e FormatNegotiatedEvent) Type() uint32 { return TypeFormatNegotiated }

// NegotiationFailedEvent is published when a format is rejected.
type NegotiationFailedEvent struct {
	StreamID  string `json:"stream_id"`
	Format    string `json:"format"`
	Code      string `json:"code"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for NegotiationFailedEvent.
func (e NegotiationFailedEvent) Type() uint32 { return TypeNegotiationFailed }

// EndOfStreamEvent is published when a stream ends and its geometry is released.
type EndOfStreamEvent struct {
	StreamID  string `json:"stream_id"`
	Frames    uint64 `json:"frames"`
	Drawn     uint64 `json:"drawn"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for EndOfStreamEvent.
func (e EndOfStreamEvent) Type() uint32 { return TypeEndOfStream }

// OverlaySettingsChangedEvent is published after settings were reloaded and
// applied to a running compositor.
type OverlaySettingsChangedEvent struct {
	Show      bool   `json:"show"`
	Silent    bool   `json:"silent"`
	Standard  string `json:"standard"`
	Range     string `json:"range"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for OverlaySettingsChangedEvent.
func (e OverlaySettingsChangedEvent) Type() uint32 { return TypeOverlaySettingsChanged }
