// Package cmd is for command line interactions with the gannot application
package cmd

import (
	"log"
	"os"

	"github.com/juliantom/gannot/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "gannot",
	Short: `Annotate bacterial genome assemblies with external annotation tools.
Each genome flows through a fixed graph of steps whose completion is
tracked with sentinel files, so interrupted runs resume where they left off`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.gannot.yaml)")
}

// initConfig reads in the config file and ENV variables if set
func initConfig() {
	config.SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".gannot")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("gannot")
	viper.AutomaticEnv()

	// a config file is optional, every setting has a default
	if err := viper.ReadInConfig(); err == nil {
		log.Printf("using config file %s\n", viper.ConfigFileUsed())
	}
}
