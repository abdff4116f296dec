package cmd

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked novels",
	Long:  "Display every book in the library in a formatted table",
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

		columns := []table.Column{
			{Title: "Title", Width: 40},
			{Title: "ID", Width: 20},
			{Title: "Status", Width: 8},
			{Title: "Updated", Width: 16},
		}
		rows := []table.Row{}
		for _, entry := range entries {
			rows = append(rows, table.Row{
				entry.Title,
				entry.ID,
				entry.Status,
				entry.LastUpdated.Format("2006-01-02 15:04"),
			})
		}

		t := table.New(
			table.WithColumns(columns),
			table.WithRows(rows),
			table.WithFocused(false),
			table.WithHeight(len(rows)),
		)
		s := table.DefaultStyles()
		s.Header = s.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true)
		s.Selected = lipgloss.NewStyle()
		t.SetStyles(s)

		fmt.Printf("\n📚 Library (%d books)\n\n", len(entries))
		fmt.Println(t.View())
		return nil
	},
}
