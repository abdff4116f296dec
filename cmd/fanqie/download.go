package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kerbaras/fanqie/pkg/utils"
)

var downloadCmd = &cobra.Command{
	Use:   "download [novel-id or book page URL]",
	Short: "Download a novel",
	Long:  "Download every missing chapter of a novel and render it in the configured format. Interrupted downloads resume where they left off.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		novelID, err := utils.ParseNovelID(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		session, err := newSession(cfg)
		if err != nil {
			return err
		}
		defer session.Close()

		return session.download(cmd.Context(), novelID)
	},
}
