package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foiafeed/foiafeed/internal/application/service"
	"github.com/foiafeed/foiafeed/internal/domain/model"
	domainservice "github.com/foiafeed/foiafeed/internal/domain/service"
	"github.com/foiafeed/foiafeed/internal/infrastructure/logger"
)

var (
	feedsFile string
	dryRun    bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one pass over every configured feed",
	Long: `Fetches every configured RSS feed once, processes articles that have not
been seen before, and exits. Intended to be invoked by an external
scheduler such as cron; foiafeed itself does no scheduling.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		params := buildParams()

		validator := domainservice.NewValidator()
		if err := validator.ValidateFeedsFile(params.FeedsFile); err != nil {
			return fmt.Errorf("invalid feeds file: %w", err)
		}
		if !params.DryRun {
			// Publishing is the whole point of the pipeline, so broken
			// credentials fail the run before any feed is touched.
			if err := validator.ValidateCredentials(params.Twitter); err != nil {
				return fmt.Errorf("invalid twitter credentials: %w", err)
			}
		}

		pipeline := service.NewPipelineService()
		report, err := pipeline.Run(context.Background(), params)
		if err != nil {
			logger.Error("pipeline run failed", "error", err)
			return fmt.Errorf("pipeline run failed: %w", err)
		}

		fmt.Printf("done: %d articles processed, %d matched, %d posted\n",
			report.Processed, report.Matched, report.Posted)
		return nil
	},
}

// buildParams assembles the run configuration from viper.
func buildParams() model.PipelineParams {
	if feedsFile == "" {
		feedsFile = viper.GetString("feeds_file")
	}

	return model.PipelineParams{
		FeedsFile:       feedsFile,
		DedupHorizon:    viper.GetInt("dedup.horizon"),
		ArticleDelay:    viper.GetDuration("pipeline.article_delay"),
		HTTPTimeout:     viper.GetDuration("http.timeout"),
		DryRun:          dryRun || viper.GetBool("pipeline.dry_run"),
		ResolveFallback: viper.GetBool("canonicalize.fallback_on_error"),
		Lexicon:         viper.GetStringSlice("lexicon"),
		Database: model.DatabaseConfig{
			FilePath: viper.GetString("database.file_path"),
		},
		Twitter: model.TwitterConfig{
			AppKey:           viper.GetString("twitter.app_key"),
			AppSecret:        viper.GetString("twitter.app_secret"),
			OauthToken:       viper.GetString("twitter.oauth_token"),
			OauthTokenSecret: viper.GetString("twitter.oauth_token_secret"),
		},
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&feedsFile, "feeds", "f", "", "feeds file path (overrides feeds_file from config)")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "match and record articles but never post")
}
