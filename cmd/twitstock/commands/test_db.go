package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/twitstock/pkg/config"
	"github.com/wonny/twitstock/pkg/database"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "피처 저장소 연결 테스트",
	Long: `데이터베이스 연결을 테스트하고 풀 통계를 표시합니다.

이 명령어는:
- config에서 DATABASE_URL 로드 (postgres:// 또는 sqlite://)
- 데이터베이스 연결 생성
- Health Check 실행
- Connection Pool 통계 표시 (postgres)

Example:
  go run ./cmd/twitstock test-db`,
	RunE: runTestDB,
}

func init() {
	rootCmd.AddCommand(testDBCmd)
}

func runTestDB(cmd *cobra.Command, args []string) error {
	fmt.Println("=== twitstock Database Connection Test ===")

	// Load configuration
	fmt.Println("Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	fmt.Printf("✅ Config loaded (ENV: %s)\n", cfg.Env)
	fmt.Printf("   Database URL: %s\n\n", maskPassword(cfg.Database.URL))

	// Create database connection
	fmt.Println("Connecting to database...")
	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()
	fmt.Printf("✅ Database connection established (%s)\n", db.Driver())

	// Get health status
	fmt.Println("Getting health status...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("❌ Health check failed: %w", err)
	}

	fmt.Println("✅ Health Check Results:")
	fmt.Printf("   Healthy: %v\n", status.Healthy)
	fmt.Printf("   Response Time: %v\n", status.ResponseTime)
	fmt.Printf("   Timestamp: %v\n\n", status.Timestamp.Format(time.RFC3339))

	if status.Stats != nil {
		fmt.Println("📊 Connection Pool Statistics:")
		fmt.Printf("   Max Connections: %d\n", status.Stats.MaxConns)
		fmt.Printf("   Total Connections: %d\n", status.Stats.TotalConns)
		fmt.Printf("   Acquired Connections: %d\n", status.Stats.AcquiredConns)
		fmt.Printf("   Idle Connections: %d\n", status.Stats.IdleConns)
		fmt.Printf("   Acquire Count: %d\n", status.Stats.AcquireCount)
		fmt.Printf("   Acquire Duration: %v\n\n", status.Stats.AcquireDuration)
	}

	if !status.Healthy {
		return fmt.Errorf("❌ database unhealthy: %s", status.Error)
	}

	fmt.Println("✅ All tests passed!")
	return nil
}

// maskPassword hides the password in a database URL for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
