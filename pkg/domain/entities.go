// Package domain defines the value types, error kinds and persistence
// contracts shared by the board document model and its storage backends.
package domain

import "time"

// EntityType identifies the kind of item stored in a board document.
type EntityType string

// Supported entity type identifiers used in errors, audit entries and records.
const (
	// EntityDevice identifies a placed device instance.
	EntityDevice EntityType = "device"
	// EntityNetSegment identifies a routing net segment.
	EntityNetSegment EntityType = "netsegment"
	// EntityPlane identifies a copper fill plane.
	EntityPlane EntityType = "plane"
	// EntityPolygon identifies a standalone polygon.
	EntityPolygon EntityType = "polygon"
	// EntityStrokeText identifies an engraved stroke text.
	EntityStrokeText EntityType = "stroke_text"
	// EntityHole identifies a drilled hole.
	EntityHole EntityType = "hole"
	// EntityAirWire identifies a derived unrouted connection indicator.
	EntityAirWire EntityType = "airwire"
	// EntityBoard identifies a whole board document.
	EntityBoard EntityType = "board"
	// EntityERCMessage identifies an electrical rule check message.
	EntityERCMessage EntityType = "erc_message"
	// EntityComponent identifies a logical component instance of the circuit.
	EntityComponent EntityType = "component"
	// EntityNetSignal identifies a logical net signal of the circuit.
	EntityNetSignal EntityType = "netsignal"
)

// Severity captures how serious a diagnostic message is.
type Severity string

// Diagnostic severities.
const (
	// SeverityError marks a condition that must be fixed before fabrication.
	SeverityError Severity = "error"
	// SeverityWarn marks a condition that should be reviewed.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// BoardSnapshot is a serialized board record persisted by a SnapshotStore.
type BoardSnapshot struct {
	BoardID string    `json:"board_id"`
	Name    string    `json:"name"`
	Payload []byte    `json:"payload"`
	SavedAt time.Time `json:"saved_at"`
}

// SnapshotInfo describes a stored snapshot without its payload.
type SnapshotInfo struct {
	BoardID string    `json:"board_id"`
	Name    string    `json:"name"`
	Size    int       `json:"size_bytes"`
	SavedAt time.Time `json:"saved_at"`
}

// Info returns the payload-free description of the snapshot.
func (s BoardSnapshot) Info() SnapshotInfo {
	return SnapshotInfo{BoardID: s.BoardID, Name: s.Name, Size: len(s.Payload), SavedAt: s.SavedAt}
}

// Clone returns a deep copy of the snapshot.
func (s BoardSnapshot) Clone() BoardSnapshot {
	cp := s
	cp.Payload = append([]byte(nil), s.Payload...)
	return cp
}
