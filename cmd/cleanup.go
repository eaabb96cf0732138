package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	cleanupDir    string
	keepLatest    int
	olderThanDays int
	cleanupDryRun bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Clean up old execution reports",
	Long:  `Remove old execution report files from an output directory based on age or count.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cleanupDir); os.IsNotExist(err) {
			return fmt.Errorf("output directory %s does not exist", cleanupDir)
		}

		entries, err := os.ReadDir(cleanupDir)
		if err != nil {
			return fmt.Errorf("failed to read output directory: %w", err)
		}

		type reportFile struct {
			name    string
			modTime time.Time
		}
		var reports []reportFile
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), "-report.yaml") {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			reports = append(reports, reportFile{name: entry.Name(), modTime: info.ModTime()})
		}

		if len(reports) == 0 {
			fmt.Println("No execution reports found.")
			return nil
		}

		// Oldest first
		sort.Slice(reports, func(i, j int) bool {
			return reports[i].modTime.Before(reports[j].modTime)
		})

		toDelete := make(map[string]bool)

		if keepLatest > 0 && len(reports) > keepLatest {
			for _, r := range reports[:len(reports)-keepLatest] {
				toDelete[r.name] = true
			}
		}

		if olderThanDays > 0 {
			cutoff := time.Now().AddDate(0, 0, -olderThanDays)
			for _, r := range reports {
				if r.modTime.Before(cutoff) {
					toDelete[r.name] = true
				}
			}
		}

		if len(toDelete) == 0 {
			fmt.Println("No reports to delete.")
			return nil
		}

		fmt.Printf("Found %d reports to delete:\n", len(toDelete))
		for _, r := range reports {
			if toDelete[r.name] {
				fmt.Printf("- %s\n", r.name)
			}
		}

		if cleanupDryRun {
			fmt.Println("Dry run - no reports were deleted.")
			return nil
		}

		for _, r := range reports {
			if !toDelete[r.name] {
				continue
			}
			fullPath := filepath.Join(cleanupDir, r.name)
			if err := os.Remove(fullPath); err != nil {
				fmt.Printf("Error deleting %s: %v\n", fullPath, err)
			}
		}

		fmt.Println("Cleanup completed.")
		return nil
	},
}

func init() {
	cleanupCmd.Flags().StringVarP(&cleanupDir, "dir", "d", "", "Output directory to clean up (required)")
	cleanupCmd.Flags().IntVarP(&keepLatest, "keep-latest", "k", 0, "Keep this many latest reports")
	cleanupCmd.Flags().IntVarP(&olderThanDays, "older-than", "o", 0, "Delete reports older than this many days")
	cleanupCmd.Flags().BoolVarP(&cleanupDryRun, "dry-run", "n", false, "Show what would be deleted without actually deleting")

	_ = cleanupCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(cleanupCmd)
}
