package config

import (
	"errors"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
)

var (
	// EnvPrefix defines name prefix for environment variables
	// with struct-path selector and value, for example:
	//    TSCALC_CALC_OFFSET=000001.500000
	EnvPrefix = "TSCALC_"
	// ConfigEnv defines environment variable for config file path, overrides the ConfigName
	ConfigEnv = "TSCALC_CONFIG"
	// ConfigName defines default filename for look in work directory if ConfigEnv is empty
	ConfigName = "tscalc.yaml"
)

// BindFlags adds flags controlling the config lookup to the command line flag set.
// Call ApplyFlags after the flag set is parsed.
func BindFlags(flags *pflag.FlagSet) {
	flags.StringVar(&EnvPrefix, "env-prefix", EnvPrefix,
		`prefix for environment variables`)
	flags.StringVar(&ConfigEnv, "config-env", ConfigEnv,
		`environment variable for config file path`)
}

// ApplyFlags normalizes values set by BindFlags flags
func ApplyFlags() {
	ConfigEnv = strings.TrimPrefix(ConfigEnv, "TSCALC_")
	ConfigEnv = strings.TrimPrefix(ConfigEnv, EnvPrefix)
	ConfigEnv = EnvPrefix + ConfigEnv
}

func applyEnv(v ...interface{}) error {
	var ee []error
	for i := range v {
		if err := env.ParseWithOptions(v[i], env.Options{Prefix: EnvPrefix}); err != nil {
			ee = append(ee, err)
		}
	}
	if len(ee) > 0 {
		return errors.Join(ee...)
	}
	return nil
}
