package reader

import (
	"context"
	"fmt"

	"github.com/labstack/gommon/bytes"
	"go.uber.org/dig"

	"github.com/iotaledger/hive.go/app"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/runtime/timeutil"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/iota.go/v4/hexutil"
	"github.com/iotaledger/purity/pkg/daemon"
	"github.com/iotaledger/purity/pkg/database"
	"github.com/iotaledger/purity/pkg/datachannel"
)

func init() {
	Component = &app.Component{
		Name:     "Reader",
		DepsFunc: func(cDeps dependencies) { deps = cDeps },
		Params:   params,
		Provide:  provide,
		Run:      run,
		IsEnabled: func(_ *dig.Container) bool {
			return ParamsReader.Enabled
		},
	}
}

var (
	Component *app.Component
	deps      dependencies
)

type dependencies struct {
	dig.In

	Channel *datachannel.Channel
	Tracker *datachannel.Tracker
	Store   *database.Store `name:"trackerStore"`
}

func provide(c *dig.Container) error {
	type trackerResult struct {
		dig.Out

		Tracker *datachannel.Tracker
		Store   *database.Store `name:"trackerStore"`
	}

	return c.Provide(func() trackerResult {
		engine, err := database.EngineFromString(ParamsReader.DatabaseEngine)
		if err != nil {
			Component.LogPanicf("invalid tracker database engine: %s", err)
		}

		tracker, store, err := datachannel.OpenTracker(engine, ParamsReader.DatabasePath)
		if err != nil {
			Component.LogPanicf("failed to open tracker database: %s", err)
		}

		if engine != database.EngineMapDB {
			Component.LogInfof("Opened %s tracker database %s", engine, trackerSummary(store, tracker))
		}

		return trackerResult{
			Tracker: tracker,
			Store:   store,
		}
	})
}

func trackerSummary(store *database.Store, tracker *datachannel.Tracker) string {
	if store.Path() == "" {
		return fmt.Sprintf("in memory with %d seen outputs", tracker.Size())
	}

	size, err := store.Size()
	if err != nil {
		return fmt.Sprintf("%s with %d seen outputs", store.Path(), tracker.Size())
	}

	return fmt.Sprintf("%s (%s) with %d seen outputs", store.Path(), bytes.Format(size), tracker.Size())
}

func run() error {
	address, err := readAddress()
	if err != nil {
		Component.LogPanicf("invalid reader address: %s", err)
	}

	if err := Component.Daemon().BackgroundWorker("Close tracker database", func(ctx context.Context) {
		<-ctx.Done()

		Component.LogInfo("Syncing tracker database to disk ...")
		if err := deps.Store.Close(); err != nil {
			Component.LogErrorf("failed to close tracker database: %s", err)
		}
		Component.LogInfo("Syncing tracker database to disk ... done")
	}, daemon.PriorityCloseDatabase); err != nil {
		Component.LogPanicf("failed to start worker: %s", err)
	}

	return Component.Daemon().BackgroundWorker(Component.Name, func(ctx context.Context) {
		Component.LogInfof("Reading tag %s from %s every %s", ParamsReader.Tag, deps.Channel.Account().Bech32(address), ParamsReader.Interval)

		poll := func() {
			if err := readNew(ctx, address); err != nil && !ierrors.Is(err, context.Canceled) {
				Component.LogWarnf("failed to read: %s", err)
			}
		}

		poll()
		ticker := timeutil.NewTicker(poll, ParamsReader.Interval, ctx)
		ticker.WaitForGracefulShutdown()

		<-ctx.Done()
		Component.LogInfo("Stopping Reader... done")
	}, daemon.PriorityReader)
}

func readAddress() (iotago.Address, error) {
	if ParamsReader.Address == "" {
		return deps.Channel.Account().Address(0), nil
	}

	_, address, err := iotago.ParseBech32(ParamsReader.Address)
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to parse %s", ParamsReader.Address)
	}

	return address, nil
}

// readNew logs the outputs that appeared since the last poll.
func readNew(ctx context.Context, address iotago.Address) error {
	outputs, err := deps.Channel.ReadNew(ctx, deps.Tracker, []byte(ParamsReader.Tag), address)

	for _, output := range outputs {
		if !ParamsReader.Decode {
			Component.LogInfo(output.ID.ToHex())

			continue
		}

		payload, err := datachannel.Metadata(output.Output)
		if err != nil {
			Component.LogWarnf("output %s carries no data: %s", output.ID.ToHex(), err)

			continue
		}

		Component.LogInfof("%s %s", output.ID.ToHex(), hexutil.EncodeHex(payload))
	}

	return err
}
