package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	config "github.com/meetscribe/backend/config/recorder"
	"github.com/meetscribe/backend/recorder/api"
)

func newListCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your saved meetings",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.New(cfg.APIBaseURL, cfg.APIToken)

			meetings, err := client.ListMeetings(cmd.Context())
			if err != nil {
				return err
			}
			if len(meetings) == 0 {
				fmt.Println("No meetings yet.")
				return nil
			}

			for _, m := range meetings {
				line := fmt.Sprintf("%s  %s  %s", m.CreatedAt.Format("2006-01-02 15:04"), m.ID, m.Title)
				if m.Duration != nil {
					line += fmt.Sprintf("  (%ds)", *m.Duration)
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}
