package datachannel

import (
	"github.com/iotaledger/hive.go/runtime/event"
	iotago "github.com/iotaledger/iota.go/v4"
)

type Events struct {
	// DataWritten is triggered after a data output was submitted and its inclusion wait ended.
	DataWritten *event.Event1[*WriteResult]
	// InclusionTimedOut is triggered if a transaction was not included within the retry budget.
	InclusionTimedOut *event.Event1[*WriteResult]
	// AnchorWritten is triggered after an anchor transitioned to a new state.
	AnchorWritten *event.Event1[*AnchorWriteResult]
	// OutputsRead is triggered with the ids returned by a query.
	OutputsRead *event.Event1[iotago.OutputIDs]

	event.Group[Events, *Events]
}

var NewEvents = event.CreateGroupConstructor(func() *Events {
	return &Events{
		DataWritten:       event.New1[*WriteResult](),
		InclusionTimedOut: event.New1[*WriteResult](),
		AnchorWritten:     event.New1[*AnchorWriteResult](),
		OutputsRead:       event.New1[iotago.OutputIDs](),
	}
})
