package cli

import (
	"os"
	"strings"

	"github.com/mvp-joe/spyglass/internal/props"
)

// confDirEnv is read directly because it tells the loader where to find
// the config file; it cannot come from the file it locates.
const confDirEnv = "SPYGLASS_PATH_CONF"

// resolveConfDir picks the configuration directory for this invocation:
// the --conf value when given, else the environment, else empty (the
// properties then come from the environment alone).
func resolveConfDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(confDirEnv)
}

// confDirFromArgs scans a raw argument vector for --conf. The start and
// run commands disable cobra flag parsing to keep their argument vectors
// verbatim, so they extract the conf directory by hand.
func confDirFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--conf" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(arg, "--conf=") {
			return strings.TrimPrefix(arg, "--conf=")
		}
	}
	return resolveConfDir("")
}

// loadProps loads the property set for a parsed-flags command.
func loadProps() (*props.PropertySet, error) {
	return props.Load(resolveConfDir(confDirFlag))
}
