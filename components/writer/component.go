package writer

import (
	"context"
	"crypto/rand"
	"time"

	"go.uber.org/dig"

	"github.com/iotaledger/hive.go/app"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/runtime/options"
	iotago "github.com/iotaledger/iota.go/v4"
	datachannelcomponent "github.com/iotaledger/purity/components/datachannel"
	faucetcomponent "github.com/iotaledger/purity/components/faucet"
	"github.com/iotaledger/purity/pkg/account"
	"github.com/iotaledger/purity/pkg/daemon"
	"github.com/iotaledger/purity/pkg/datachannel"
	"github.com/iotaledger/purity/pkg/faucet"
)

func init() {
	Component = &app.Component{
		Name:     "Writer",
		DepsFunc: func(cDeps dependencies) { deps = cDeps },
		Params:   params,
		Run:      run,
		IsEnabled: func(_ *dig.Container) bool {
			return ParamsWriter.Enabled
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
	Faucet  *faucet.Client `optional:"true"`
}

func run() error {
	if ParamsWriter.PayloadSize <= 0 {
		Component.LogPanicf("invalid payload size %d", ParamsWriter.PayloadSize)
	}

	if _, err := deps.Channel.Account().GeneratedAddress(ParamsWriter.SenderIndex); err != nil {
		Component.LogPanicf("invalid writer sender: %s", err)
	}

	recipient, err := recipientAddress()
	if err != nil {
		Component.LogPanicf("invalid writer address: %s", err)
	}

	return Component.Daemon().BackgroundWorker(Component.Name, func(ctx context.Context) {
		Component.LogInfof("Starting %s ... done", Component.Name)

		if err := ensureFunds(ctx); err != nil {
			Component.LogErrorf("failed to fund %s: %s", deps.Channel.Account().Bech32(sender()), err)
		} else {
			writeAll(ctx, recipient)
		}

		<-ctx.Done()
		Component.LogInfo("Stopping Writer... done")
	}, daemon.PriorityWriter)
}

func sender() iotago.Address {
	return deps.Channel.Account().Address(ParamsWriter.SenderIndex)
}

func recipientAddress() (iotago.Address, error) {
	if ParamsWriter.Address == "" {
		if !ParamsWriter.FreshAddress {
			return nil, nil
		}

		addressData, err := deps.Channel.Account().GenerateAddress()
		if err != nil {
			return nil, ierrors.Wrap(err, "failed to generate recipient address")
		}
		Component.LogInfof("Writing to fresh address %d: %s", addressData.Index, deps.Channel.Account().Bech32(addressData.Address))

		return addressData.Address, nil
	}

	_, address, err := iotago.ParseBech32(ParamsWriter.Address)
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to parse %s", ParamsWriter.Address)
	}

	return address, nil
}

// ensureFunds tops up the sender address through the faucet if the account balance is too low.
func ensureFunds(ctx context.Context) error {
	balance, err := deps.Channel.Account().Balance(ctx)
	if err != nil {
		return ierrors.Wrap(err, "failed to query balance")
	}

	if deps.Faucet == nil || balance >= iotago.BaseToken(faucetcomponent.ParamsFaucet.MinBalance) {
		Component.LogInfof("Balance of %s: %d", deps.Channel.Account().Alias(), balance)

		return nil
	}

	Component.LogInfof("Balance %d is below %d, requesting funds", balance, faucetcomponent.ParamsFaucet.MinBalance)

	funded, err := deps.Faucet.Fund(ctx, sender())
	if err != nil {
		return err
	}

	Component.LogInfof("Received funds, balance of %s: %d", deps.Channel.Account().Bech32(sender()), funded)

	return nil
}

func writeAll(ctx context.Context, recipient iotago.Address) {
	if recipient == nil {
		recipient = sender()
	}

	writeOpts := []options.Option[datachannel.WriteOptions]{
		datachannel.WithSenderIndex(ParamsWriter.SenderIndex),
	}
	if ParamsWriter.Expiration > 0 {
		writeOpts = append(writeOpts, datachannel.WithExpiration(ParamsWriter.Expiration))
	}
	if ParamsWriter.Timelock > 0 {
		writeOpts = append(writeOpts, datachannel.WithTimelock(ParamsWriter.Timelock))
	}

	for i := 0; ParamsWriter.Count == 0 || i < ParamsWriter.Count; i++ {
		if i > 0 && !pause(ctx) {
			return
		}

		result, err := writeRandom(ctx, recipient, writeOpts...)
		if err != nil {
			if ierrors.Is(err, context.Canceled) {
				return
			}

			Component.LogErrorf("write %d failed: %s", i, err)

			if ierrors.Is(err, account.ErrInsufficientFunds) {
				if deps.Faucet == nil {
					return
				}

				if err := ensureFunds(ctx); err != nil {
					Component.LogErrorf("failed to top up %s: %s", deps.Channel.Account().Bech32(sender()), err)

					return
				}

				continue
			}

			if !wait(ctx, datachannelcomponent.ParamsDataChannel.RetryInterval) {
				return
			}

			continue
		}

		// index,duration in milliseconds
		Component.LogInfof("%d,%d", i, result.Duration.Milliseconds())
	}

	Component.LogInfof("Wrote %d payloads with tag %s", ParamsWriter.Count, ParamsWriter.Tag)
}

func writeRandom(ctx context.Context, recipient iotago.Address, opts ...options.Option[datachannel.WriteOptions]) (*datachannel.WriteResult, error) {
	payload := make([]byte, ParamsWriter.PayloadSize)
	if _, err := rand.Read(payload); err != nil {
		return nil, ierrors.Wrap(err, "failed to generate payload")
	}

	return deps.Channel.Write(ctx, recipient, []byte(ParamsWriter.Tag), payload, opts...)
}

func pause(ctx context.Context) bool {
	return wait(ctx, ParamsWriter.Interval)
}

// wait blocks for d and reports whether the context is still alive.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
