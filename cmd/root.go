package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foiafeed/foiafeed/internal/infrastructure/logger"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "foiafeed",
	Short: "Finds and tweets news coverage of public records law",
	Long: `foiafeed polls a configured set of news outlet RSS feeds, extracts the
readable text of articles it has not seen before, and scans each paragraph
for mentions of FOIA or other public records law. Matching excerpts are
rendered as text images and posted, with the article link, to Twitter.

Every processed article is recorded in a local SQLite ledger so that a
rerun never touches the same article twice.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	setupSignalHandler()

	if code := execute(); code != 0 {
		os.Exit(code)
	}
}

// execute runs the root command and flushes logs before reporting the exit
// code, so a failing run still writes its log tail.
func execute() int {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Println(err)
		return 1
	}
	return 0
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default ./config.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	setConfigDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("using config file:", viper.ConfigFileUsed())
		initLogger()
	} else {
		fmt.Printf("cannot read config file: %v\n", err)
	}

	viper.AutomaticEnv()
}

// setConfigDefaults registers fallback values for every recognized option.
func setConfigDefaults() {
	viper.SetDefault("feeds_file", "rssfeeds.json")
	viper.SetDefault("database.file_path", "foiafeed.db")
	viper.SetDefault("dedup.horizon", 1000)
	viper.SetDefault("pipeline.article_delay", "1s")
	viper.SetDefault("pipeline.dry_run", false)
	viper.SetDefault("http.timeout", "15s")
	viper.SetDefault("canonicalize.fallback_on_error", true)
}

// initLogger wires the logging system from the config file.
func initLogger() {
	logConfig := logger.Config{
		Level:      viper.GetString("logger.level"),
		Console:    viper.GetBool("logger.console"),
		FilePath:   viper.GetString("logger.file_path"),
		MaxSize:    viper.GetInt("logger.max_size"),
		MaxBackups: viper.GetInt("logger.max_backups"),
		MaxAge:     viper.GetInt("logger.max_age"),
		Compress:   viper.GetBool("logger.compress"),
	}

	if err := logger.Init(logConfig); err != nil {
		fmt.Printf("cannot initialize logging: %v\n", err)
	}
}

// setupSignalHandler flushes logs and exits on SIGINT/SIGTERM.
func setupSignalHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Println("\ninterrupted, shutting down")
		logger.Info("received interrupt signal, cleaning up")
		logger.Sync()
		os.Exit(0)
	}()
}
