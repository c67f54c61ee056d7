// Command fastxlsx converts JSON and YAML records into xlsx workbooks.
package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arloliu/fastxlsx/errs"
)

var version = "0.1.0"

const envPrefix = "FASTXLSX"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "fastxlsx",
		Short:         "fastxlsx - streaming xlsx writer",
		Long:          `fastxlsx writes records into single-sheet xlsx workbooks without a spreadsheet application.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pflags := root.PersistentFlags()
	pflags.String("config", "", "Path to a YAML config file")
	pflags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	pflags.Bool("log-development", false, "Human-readable console logs")
	_ = v.BindPFlags(pflags)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fastxlsx v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
	root.AddCommand(newConvertCmd(v))

	return root
}

// loadConfig reads the config file named by --config, if any. Flags set on
// the command line and environment variables take precedence over it.
func loadConfig(v *viper.Viper) error {
	path := v.GetString("config")
	if path == "" {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: read config %s: %v", errs.ErrInvalidConfiguration, path, err)
	}

	return nil
}
