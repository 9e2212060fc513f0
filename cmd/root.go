/*
	Copyright 2023 Markus Papenbrock
*/

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	competitionsCmd "github.com/mpapenbr/swimprotocol/pkg/cmd/competitions"
	migrateCmd "github.com/mpapenbr/swimprotocol/pkg/cmd/migrate"
	protocolCmd "github.com/mpapenbr/swimprotocol/pkg/cmd/protocol"
	resultsCmd "github.com/mpapenbr/swimprotocol/pkg/cmd/results"
	versionCmd "github.com/mpapenbr/swimprotocol/pkg/cmd/version"
	"github.com/mpapenbr/swimprotocol/pkg/config"
	"github.com/mpapenbr/swimprotocol/version"
)

const envPrefix = "SPC"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "spc",
	Short:        "Start protocol client for swim competitions",
	Long:         ``,
	Version:      version.FullVersion,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

//nolint:funlen // flag definitions
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.spc.yml)")

	rootCmd.PersistentFlags().StringVar(&config.BaseURL, "base-url",
		"http://localhost:8000",
		"Base URL of the competition server")
	rootCmd.PersistentFlags().StringVar(&config.AuthToken, "auth-token",
		"",
		"Token sent with start protocol requests")
	rootCmd.PersistentFlags().StringVar(&config.RequestTimeout, "request-timeout",
		"30s",
		"Timeout per server request")

	rootCmd.PersistentFlags().StringVar(&config.StoreType, "store",
		"file",
		"Storage backend (file, memory, nats, postgres, s3)")
	rootCmd.PersistentFlags().StringVar(&config.StoreDir, "store-dir",
		"protocols",
		"Directory used by the file store")
	rootCmd.PersistentFlags().BoolVar(&config.StoreWatch, "store-watch",
		false,
		"Cache reads of the file store, invalidated on directory changes")
	rootCmd.PersistentFlags().StringVar(&config.NatsURL, "nats-url",
		"nats://localhost:4222",
		"URL of the NATS server (nats store)")
	rootCmd.PersistentFlags().StringVar(&config.NatsBucket, "nats-bucket",
		"",
		"Key value bucket (nats store)")
	rootCmd.PersistentFlags().StringVar(&config.DB, "db",
		"postgresql://DB_USERNAME:DB_USER_PASSWORD@DB_HOST:5432/swimprotocol",
		"Connection string for the database (postgres store)")
	rootCmd.PersistentFlags().StringVar(&config.S3Bucket, "s3-bucket",
		"",
		"Bucket (s3 store)")
	rootCmd.PersistentFlags().StringVar(&config.S3Prefix, "s3-prefix",
		"protocols/",
		"Object key prefix (s3 store)")
	rootCmd.PersistentFlags().StringVar(&config.S3Endpoint, "s3-endpoint",
		"",
		"Endpoint of an S3 compatible service (s3 store)")
	rootCmd.PersistentFlags().StringVar(&config.S3Region, "s3-region",
		"",
		"Region (s3 store)")
	rootCmd.PersistentFlags().StringVar(&config.S3AccessKey, "s3-access-key",
		"",
		"Access key, the AWS credential chain is used if empty (s3 store)")
	rootCmd.PersistentFlags().StringVar(&config.S3SecretKey, "s3-secret-key",
		"",
		"Secret key (s3 store)")
	rootCmd.PersistentFlags().StringVar(&config.WaitForServices,
		"wait-for-services",
		"15s",
		"Duration to wait for other services to be ready")
	rootCmd.PersistentFlags().IntVar(&config.SyncConcurrency,
		"sync-concurrency",
		4,
		"Max number of competitions refreshed in parallel")

	rootCmd.PersistentFlags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"info",
		"controls the log level for sql methods")
	rootCmd.PersistentFlags().StringVar(&config.LogFormat,
		"log-format",
		"text",
		"controls the log output format (json, text)")
	rootCmd.PersistentFlags().StringVar(&config.LogFilter,
		"log-filter",
		"",
		"restricts log output by logger name, e.g. \"*:* debug:storage.*\"")
	rootCmd.PersistentFlags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	rootCmd.PersistentFlags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"",
		"OTLP endpoint that receives telemetry data, stderr if empty")

	// add commands here
	rootCmd.AddCommand(competitionsCmd.NewCompetitionsCmd())
	rootCmd.AddCommand(protocolCmd.NewFetchCmd())
	rootCmd.AddCommand(protocolCmd.NewShowCmd())
	rootCmd.AddCommand(protocolCmd.NewListCmd())
	rootCmd.AddCommand(protocolCmd.NewDeleteCmd())
	rootCmd.AddCommand(protocolCmd.NewSyncCmd())
	rootCmd.AddCommand(resultsCmd.NewRecordCmd())
	rootCmd.AddCommand(resultsCmd.NewRelayCmd())
	rootCmd.AddCommand(resultsCmd.NewSubmitCmd())
	rootCmd.AddCommand(migrateCmd.NewMigrateCmd())
	rootCmd.AddCommand(versionCmd.NewVersionCmd())
}

// initConfig reads in .env, config file and ENV variables if set.
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Could not read .env:", err)
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".spc" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".spc")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd.PersistentFlags(), viper.GetViper())
	visitCommands(rootCmd, func(cmd *cobra.Command) {
		bindFlags(cmd.LocalNonPersistentFlags(), viper.GetViper())
	})
}

func visitCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	for _, c := range cmd.Commands() {
		fn(c)
		visitCommands(c, fn)
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(flags *pflag.FlagSet, v *viper.Viper) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --base-url to SPC_BASE_URL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := flags.Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
