package command

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-flaghooks/core"
)

var (
	_ gocmd.Commander[NotifyMessage]          = (*NotifyCommand)(nil)
	_ gocmd.Commander[DispatchMessage]        = (*DispatchCommand)(nil)
	_ gocmd.Commander[ProcessDeliveryMessage] = (*ProcessDeliveryCommand)(nil)

	_ Notifier          = (*core.WebhookListener)(nil)
	_ DeliveryProcessor = (*core.DeliveryWorker)(nil)
)
