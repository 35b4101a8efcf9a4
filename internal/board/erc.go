package board

import (
	"fmt"

	"github.com/google/uuid"

	"boardcore/internal/erc"
	"boardcore/pkg/domain"
)

// ERCTypeUnplacedComponent is the message type for components without device.
const ERCTypeUnplacedComponent = "UnplacedComponent"

func (b *Board) ercKey(component uuid.UUID) string {
	return b.uuid.String() + "/" + component.String()
}

// updateErcMessages keeps one visible message per unplaced component while
// the board is added to its project, and none otherwise.
func (b *Board) updateErcMessages() {
	list := b.project.ERCMessages()
	if !b.addedToProject {
		for id, msg := range b.ercMessages {
			b.dropErcMessage(id, msg)
		}
		return
	}
	circuit := b.project.Circuit()
	for _, ci := range circuit.Components() {
		if ci.IsSchematicOnly() {
			continue
		}
		_, placed := b.devices.get(ci.UUID())
		msg, exists := b.ercMessages[ci.UUID()]
		switch {
		case !placed && !exists:
			msg = erc.NewMessage(list, b.ercKey(ci.UUID()), ERCTypeUnplacedComponent, domain.SeverityWarn,
				fmt.Sprintf("Unplaced Component: %s (Board: %s)", ci.Name(), b.name))
			if err := msg.SetVisible(true); err != nil {
				b.logger.Error("register erc message", "board", b.name, "component", ci.Name(), "error", err)
				continue
			}
			b.ercMessages[ci.UUID()] = msg
		case placed && exists:
			b.dropErcMessage(ci.UUID(), msg)
		}
	}
	for id, msg := range b.ercMessages {
		if ci, ok := circuit.ComponentByUUID(id); !ok || ci.IsSchematicOnly() {
			b.dropErcMessage(id, msg)
		}
	}
}

func (b *Board) dropErcMessage(id uuid.UUID, msg *erc.Message) {
	if err := msg.SetVisible(false); err != nil {
		b.logger.Error("unregister erc message", "board", b.name, "key", msg.Key(), "error", err)
	}
	delete(b.ercMessages, id)
}

// ERCMessages returns the messages this board registered, keyed by component.
func (b *Board) ERCMessages() map[uuid.UUID]*erc.Message {
	out := make(map[uuid.UUID]*erc.Message, len(b.ercMessages))
	for k, v := range b.ercMessages {
		out[k] = v
	}
	return out
}
