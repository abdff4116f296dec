package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kerbaras/fanqie/pkg/data"
)

var updateAll bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fetch new chapters for every tracked novel",
	Long:  "Re-run the download for each book in the library, picking up chapters published since the last run. Finished books are skipped unless --all is set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		session, err := newSession(cfg)
		if err != nil {
			return err
		}
		defer session.Close()

		entries, err := session.library.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("📚 Library is empty. Use 'fanqie download' to add a book.")
			return nil
		}

		for _, entry := range entries {
			if !updateAll && entry.Status == data.StatusFinished {
				fmt.Printf("⏭️  %s is finished, skipping\n", entry.Title)
				continue
			}
			if err := session.download(cmd.Context(), entry.ID); err != nil {
				logger.Warn("update failed", zap.String("book", entry.Title), zap.Error(err))
				fmt.Printf("⚠️  %s: %v\n", entry.Title, err)
			}
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateAll, "all", false, "also re-check finished books")
}
