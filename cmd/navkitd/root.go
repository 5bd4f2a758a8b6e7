package main

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// newRootCmd builds the command tree over a fresh viper instance.
func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:     "navkitd",
		Short:   "Serve site navigation built from sitemap files",
		Version: version,
		Long: `navkitd builds navigation trees from XML or YAML sitemap files and serves
menus, breadcrumbs and sitemaps.org XML over HTTP, one tree per host.

Every flag can also be set through the environment as NAVKIT_<FLAG>, with
dashes replaced by underscores (e.g. NAVKIT_CACHE_TTL=10m), or in a YAML
config file given with --config. Values in .env and .env.local are loaded
into the environment first.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd, v, cfgFile)
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (keys are flag names)")
	addFlags(root)

	root.AddCommand(newServeCmd(v), newValidateCmd(v))
	return root
}

// initConfig layers the config file, environment and flags in v.
func initConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v.SetEnvPrefix("navkit")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return v.BindPFlags(cmd.Flags())
}
