package commands

import (
	"fmt"
	"strings"

	"github.com/wonny/twitstock/internal/pipeline"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a formatted command header
func PrintHeader(title string, args ...string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	if len(args) > 0 {
		PrintSeparator()
		fmt.Printf("  Tickers   : %s\n", strings.Join(args, ", "))
	}
	PrintSeparator()
}

// PrintReport prints the per-status task counts of a run and its failures
func PrintReport(command string, report *pipeline.Report) {
	if report == nil {
		return
	}
	s := report.Summary(command)

	fmt.Println()
	PrintKeyValue("Tasks", fmt.Sprintf("%d", s.Tasks), 8)
	PrintKeyValue("Done", fmt.Sprintf("%d", s.Done), 8)
	PrintKeyValue("Skipped", fmt.Sprintf("%d", s.Skipped), 8)
	PrintKeyValue("Failed", fmt.Sprintf("%d", s.Failed), 8)
	PrintKeyValue("Blocked", fmt.Sprintf("%d", s.Blocked), 8)
	PrintKeyValue("Duration", fmt.Sprintf("%.2fs", float64(s.Duration)/1000), 8)

	if len(s.Errors) > 0 {
		fmt.Println()
		PrintList(s.Errors)
	}

	fmt.Println()
	if s.Success {
		PrintSuccess(fmt.Sprintf("%s completed", command))
	} else {
		PrintError(fmt.Sprintf("%s failed", command))
	}
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}
