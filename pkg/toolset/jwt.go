package toolset

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/iotaledger/hive.go/app/configuration"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/purity/components/restapi"
	"github.com/iotaledger/purity/pkg/secretstore"
)

func generateJWTApiToken(args []string) error {
	fs := configuration.NewUnsortedFlagSet("", flag.ContinueOnError)
	storagePathFlag := fs.String(FlagToolStoragePath, DefaultValueStoragePath, "the directory of the secret store")
	passwordFlag := fs.String(FlagToolPassword, "", "the password of the secret store")
	apiJWTSaltFlag := fs.String(FlagToolSalt, DefaultValueJWTSalt, "salt used inside the JWT tokens for the REST API")
	outputJSONFlag := fs.Bool(FlagToolOutputJSON, false, FlagToolDescriptionOutputJSON)

	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", ToolJWTApi)
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nexample: %s --%s %s --%s %s\n",
			ToolJWTApi,
			FlagToolStoragePath,
			DefaultValueStoragePath,
			FlagToolSalt,
			DefaultValueJWTSalt)
	}

	if err := parseFlagSet(fs, args); err != nil {
		return err
	}

	if len(*apiJWTSaltFlag) == 0 {
		return ierrors.Errorf("'%s' not specified", FlagToolSalt)
	}

	pw, err := password(*passwordFlag, "Password: ")
	if err != nil {
		return err
	}

	store, err := secretstore.Open(secretstore.Path(*storagePathFlag), pw)
	if err != nil {
		return err
	}

	jwtAuth, err := restapi.NewAuth(*apiJWTSaltFlag, store)
	if err != nil {
		return ierrors.Wrap(err, "JWT auth initialization failed")
	}

	jwtToken, err := jwtAuth.IssueJWT()
	if err != nil {
		return ierrors.Wrap(err, "issuing JWT token failed")
	}

	if *outputJSONFlag {
		return printJSON(struct {
			JWT string `json:"jwt"`
		}{
			JWT: jwtToken,
		})
	}

	fmt.Println("Your API JWT token: ", jwtToken)

	return nil
}
