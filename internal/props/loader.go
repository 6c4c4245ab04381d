package props

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// envBoundKeys lists every property the supervising process may inject
// through the environment alone. Viper only surfaces environment-only keys
// that were bound up front, so anything not listed here must come from the
// config file.
var envBoundKeys = []string{
	SearchPort,
	SearchMonitor,
	SearchOptions,
	SearchGracePeriod,
	SearchWaitReady,
	ClusterName,
	ClusterMaster,
	ClusterActivation,
	NodeName,
	PathHome,
	PathConf,
	PathData,
	PathTemp,
	PathLog,
	PathDist,
}

// Load reads <confDir>/spyglass.yml and layers SPYGLASS_* environment
// variables on top. Precedence from lowest to highest: built-in defaults,
// config file, environment. A missing config file is fine; the environment
// alone can carry a full configuration. confDir may be empty when the
// caller has no conf directory at all.
func Load(confDir string) (*PropertySet, error) {
	v := viper.New()

	v.SetConfigName("spyglass")
	v.SetConfigType("yaml")
	if confDir != "" {
		v.AddConfigPath(confDir)
	}

	// spyglass.search.port binds to SPYGLASS_SEARCH_PORT; the leading key
	// segment doubles as the environment prefix.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	for _, key := range envBoundKeys {
		v.BindEnv(key)
	}

	setDefaults(v, confDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// AllKeys also lists env bindings that never received a value; IsSet
	// filters those out so absence stays observable downstream.
	values := make(map[string]string)
	for _, key := range v.AllKeys() {
		if !v.IsSet(key) {
			continue
		}
		values[key] = v.GetString(key)
	}
	return New(values), nil
}

func setDefaults(v *viper.Viper, confDir string) {
	v.SetDefault(ClusterName, "spyglass")
	v.SetDefault(SearchGracePeriod, "5s")
	if confDir != "" {
		v.SetDefault(PathConf, confDir)
		v.SetDefault(SearchOptions, filepath.Join(confDir, "search.options"))
	}
}
