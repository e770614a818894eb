package account

import (
	"context"

	"go.uber.org/dig"

	"github.com/iotaledger/hive.go/app"
	"github.com/iotaledger/purity/pkg/account"
	"github.com/iotaledger/purity/pkg/daemon"
	"github.com/iotaledger/purity/pkg/ledger"
	"github.com/iotaledger/purity/pkg/secretstore"
)

func init() {
	Component = &app.Component{
		Name:     "Account",
		DepsFunc: func(cDeps dependencies) { deps = cDeps },
		Params:   params,
		Provide:  provide,
		Run:      run,
	}
}

var (
	Component *app.Component
	deps      dependencies
)

type dependencies struct {
	dig.In

	Account *account.Account
}

func provide(c *dig.Container) error {
	if err := c.Provide(func() *secretstore.Store {
		store, created, err := secretstore.OpenOrCreate(secretstore.Path(ParamsAccount.StoragePath), ParamsAccount.Password, ParamsAccount.Mnemonic)
		if err != nil {
			Component.LogPanicf("failed to open secret store: %s", err)
		}

		if created {
			Component.LogInfof("Created secret store %s", store.Path())
		}

		return store
	}); err != nil {
		return err
	}

	return c.Provide(func(store *secretstore.Store, client ledger.Client) *account.Account {
		keyManager, err := store.KeyManager(ParamsAccount.BIP32Path)
		if err != nil {
			Component.LogPanicf("failed to derive keys: %s", err)
		}

		acc, err := account.New(client, keyManager,
			account.WithStoragePath(ParamsAccount.StoragePath),
			account.WithAlias(ParamsAccount.Alias),
		)
		if err != nil {
			Component.LogPanicf("failed to load account: %s", err)
		}

		return acc
	})
}

func run() error {
	return Component.Daemon().BackgroundWorker(Component.Name, func(ctx context.Context) {
		summary, err := deps.Account.Summary(ctx)
		if err != nil {
			Component.LogWarnf("failed to summarize account: %s", err)
		} else {
			Component.LogInfof("Account %s: addresses %v, %d unspent outputs, balance %d", summary.Alias, summary.Addresses, len(summary.OutputIDs), summary.Balance)
		}

		<-ctx.Done()
		Component.LogInfo("Stopping Account... done")
	}, daemon.PriorityAccount)
}
