package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	pipelineFile string
	workers      int
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "twitstock",
	Short: "Twitter sentiment stock signal pipeline",
	Long: `twitstock CLI

트윗 감성 + 주가 데이터로 다음 거래일 BUY/SELL 신호를 예측하는 파이프라인.
각 단계의 산출물이 이미 있으면 건너뜁니다 (idempotent).

Usage:
  go run ./cmd/twitstock [command]

Examples:
  go run ./cmd/twitstock load all
  go run ./cmd/twitstock predict AAPL 2016-06-01
  go run ./cmd/twitstock api
  go run ./cmd/twitstock scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&pipelineFile, "pipeline", "", "pipeline YAML (default: PIPELINE_CONFIG or built-in)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "executor worker count (default: PIPELINE_WORKERS)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
