package flags

import "github.com/urfave/cli/v2"

const (
	WalletCategory     = "WALLET"
	SecurityCategory   = "SECURITY"
	StorageCategory    = "STORAGE"
	NetworkingCategory = "NETWORKING"
	RateLimitCategory  = "RATE LIMIT"
	SessionCategory    = "SESSION"
	LoggingCategory    = "LOGGING AND DEBUGGING"
	MiscCategory       = "MISC"
	DeprecatedCategory = "ALIASED (deprecated)"
)

func init() {
	cli.HelpFlag.(*cli.BoolFlag).Category = MiscCategory
	cli.VersionFlag.(*cli.BoolFlag).Category = MiscCategory
}
