package command

import (
	"github.com/goliatone/go-flaghooks/core"
)

const (
	TypeNotify          = "flaghooks.command.notify"
	TypeDispatch        = "flaghooks.command.dispatch"
	TypeProcessDelivery = "flaghooks.command.delivery.process"
)

// NotifyMessage carries a raw flag event. Any event, blank included, is
// accepted; the listener ignores the ones it does not recognize.
type NotifyMessage struct {
	Event string
	Flag  core.Flag
}

func (NotifyMessage) Type() string { return TypeNotify }

type DispatchMessage struct {
	Category core.Category
	Flag     core.Flag
}

func (DispatchMessage) Type() string { return TypeDispatch }

func (m DispatchMessage) Validate() error {
	if !m.Category.Valid() || m.Category == core.CategoryBase {
		return commandValidationError("category", "category must be create, update or delete")
	}
	if m.Category != core.CategoryCreate && m.Flag.Metadata.ID == 0 {
		return commandValidationError("flag.metadata.id", "id is required for "+m.Category.String())
	}
	return nil
}

type ProcessDeliveryMessage struct {
	Delivery core.JobDelivery
}

func (ProcessDeliveryMessage) Type() string { return TypeProcessDelivery }

func (m ProcessDeliveryMessage) Validate() error {
	if m.Delivery == nil {
		return commandValidationError("delivery", "delivery is required")
	}
	if m.Delivery.Message() == nil {
		return commandValidationError("delivery.message", "delivery message is required")
	}
	return nil
}
