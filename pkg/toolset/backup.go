package toolset

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	copydir "github.com/otiai10/copy"
	flag "github.com/spf13/pflag"

	"github.com/iotaledger/hive.go/app/configuration"
	"github.com/iotaledger/hive.go/ierrors"
)

func backupStorage(args []string) error {
	fs := configuration.NewUnsortedFlagSet("", flag.ContinueOnError)
	storagePathFlag := fs.String(FlagToolStoragePath, DefaultValueStoragePath, "the storage directory to back up")
	outputPathFlag := fs.String(FlagToolOutputPath, "", "the target directory (default: <storagePath>_backup_<timestamp>)")

	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", ToolBackup)
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nexample: %s --%s %s --%s %s\n", ToolBackup, FlagToolStoragePath, DefaultValueStoragePath, FlagToolOutputPath, "backups/wallet")
	}

	if err := parseFlagSet(fs, args); err != nil {
		return err
	}

	source := filepath.Clean(*storagePathFlag)
	if info, err := os.Stat(source); err != nil {
		return ierrors.Wrapf(err, "can't read storage directory %s", source)
	} else if !info.IsDir() {
		return ierrors.Errorf("%s is not a directory", source)
	}

	target := *outputPathFlag
	if target == "" {
		target = fmt.Sprintf("%s_backup_%s", source, time.Now().UTC().Format("20060102150405"))
	}

	if _, err := os.Stat(target); err == nil {
		return ierrors.Errorf("target %s already exists", target)
	}

	if err := copydir.Copy(source, target, copydir.Options{
		PermissionControl: copydir.PerservePermission,
	}); err != nil {
		return ierrors.Wrapf(err, "failed to copy %s to %s", source, target)
	}

	fmt.Printf("Copied %s to %s\n", source, target)

	return nil
}
