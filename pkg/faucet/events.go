package faucet

import (
	"github.com/iotaledger/hive.go/runtime/event"
	iotago "github.com/iotaledger/iota.go/v4"
)

type Events struct {
	FundsRequested *event.Event1[iotago.Address]
	RequestFailed  *event.Event1[error]
	FundsReceived  *event.Event1[iotago.BaseToken]

	event.Group[Events, *Events]
}

// NewEvents contains the constructor of the Events object (it is generated by a generic factory).
var NewEvents = event.CreateGroupConstructor(func() (newEvents *Events) {
	return &Events{
		FundsRequested: event.New1[iotago.Address](),
		RequestFailed:  event.New1[error](),
		FundsReceived:  event.New1[iotago.BaseToken](),
	}
})
