package commands

import (
	"github.com/ncobase/jobqueue/version"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Args:  cobra.NoArgs,
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetVersionInfo()
			if !asJSON {
				cmd.Println(info.String())
				return nil
			}
			s, err := info.JSON()
			if err != nil {
				return err
			}
			cmd.Println(s)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
