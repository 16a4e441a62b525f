package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/twitstock/internal/pipeline"
)

var (
	loadCmd = &cobra.Command{
		Use:   "load [tickers...|all]",
		Short: "가격/트윗 수집 + 피처 테이블 생성",
		Long: `티커별로 가격 이력과 트윗 엑셀을 업로드하고 피처 테이블(<TICKER>)을 만듭니다.

인자가 없으면 cashtags 파일의 전체 유니버스(all)를 처리합니다.

Example:
  go run ./cmd/twitstock load
  go run ./cmd/twitstock load AAPL MSFT`,
		RunE: runLoad,
	}

	analyzeCmd = &cobra.Command{
		Use:   "analyze [tickers...|all]",
		Short: "모델 학습 + 예측 테이블 생성",
		Long: `티커별로 랜덤 포레스트를 학습하고 예측 테이블(<TICKER>_predict)을 만듭니다.

필요한 선행 단계(load)는 자동으로 실행됩니다.

Example:
  go run ./cmd/twitstock analyze all`,
		RunE: runAnalyze,
	}

	predictCmd = &cobra.Command{
		Use:   "predict <ticker> <date>",
		Short: "특정 날짜의 BUY/SELL 신호 조회",
		Args:  cobra.ExactArgs(2),
		Example: `  go run ./cmd/twitstock predict AAPL 2016-06-01
  go run ./cmd/twitstock predict '$AAPL' 2016-06-03`,
		RunE: runPredict,
	}

	graphCmd = &cobra.Command{
		Use:   "graph <ticker>",
		Short: "Buy & hold vs 전략 누적 수익률",
		Args:  cobra.ExactArgs(1),
		RunE:  runGraph,
	}

	tickersCmd = &cobra.Command{
		Use:   "tickers",
		Short: "유니버스 티커 목록",
		RunE:  runTickers,
	}

	uploadCashtagsCmd = &cobra.Command{
		Use:   "upload-cashtags",
		Short: "cashtags 파일을 데이터 저장소로 복사",
		RunE:  runUploadCashtags,
	}
)

func init() {
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(tickersCmd)
	rootCmd.AddCommand(uploadCashtagsCmd)
}

// withApp runs fn with a wired app and a context cancelled on Ctrl+C
func withApp(fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if verbose {
		a.orchestrator.Executor().OnEvent(printEvent)
	}
	return fn(ctx, a)
}

func selection(args []string) []string {
	if len(args) == 0 {
		return []string{"all"}
	}
	return args
}

func runLoad(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		PrintHeader("Load", selection(args)...)
		report, err := a.orchestrator.Load(ctx, selection(args))
		PrintReport("load", report)
		return err
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		PrintHeader("Analyze", selection(args)...)
		report, err := a.orchestrator.Analyze(ctx, selection(args))
		PrintReport("analyze", report)
		return err
	})
}

func runPredict(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		line, report, err := a.orchestrator.Predict(ctx, args[0], args[1])
		if err != nil {
			PrintReport("predict", report)
			return err
		}

		if verbose {
			PrintReport("predict", report)
		}
		fmt.Println(line)
		return nil
	})
}

func runGraph(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		points, report, err := a.orchestrator.Graph(ctx, args[0])
		if err != nil {
			PrintReport("graph", report)
			return err
		}

		PrintHeader(fmt.Sprintf("NAV %s", args[0]))
		widths := []int{10, 12, 12}
		PrintTableHeader([]string{"Date", "NAV", "Strategy"}, widths)
		for _, p := range points {
			PrintTableRow([]string{p.Date, fmt.Sprintf("%.4f", p.NAV), fmt.Sprintf("%.4f", p.NAVStrategy)}, widths)
		}
		return nil
	})
}

func runTickers(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		tickers, err := a.orchestrator.Tickers()
		if err != nil {
			return err
		}

		PrintInfo(fmt.Sprintf("%d tickers", len(tickers)))
		PrintList(tickers)
		return nil
	})
}

func runUploadCashtags(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		report, err := a.orchestrator.UploadCashtags(ctx)
		PrintReport("upload-cashtags", report)
		return err
	})
}

// printEvent writes one executor event per line while a command runs
func printEvent(ev pipeline.Event) {
	if ev.Err != "" {
		fmt.Printf("[%-7s] %s: %s\n", ev.Status, ev.ID, ev.Err)
		return
	}
	fmt.Printf("[%-7s] %s\n", ev.Status, ev.ID)
}
