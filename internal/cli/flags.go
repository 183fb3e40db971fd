package cli

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlag ties a flag to a configuration key. A flag set on the command
// line wins over the environment; an unset flag only supplies its default.
func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
