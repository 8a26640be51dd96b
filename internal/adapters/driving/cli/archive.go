package cli

import (
	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Move the working database into the sessions directory",
	Long: `Close the working database and move it to
<sessions.dir>/pikia.db.YYYYMMDD_HHMMSS. The next command starts with an
empty database.`,
	Args: cobra.NoArgs,
	RunE: runArchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, _ []string) error {
	settings, err := effectiveSettings(cmd)
	if err != nil {
		return err
	}

	ws, err := openWorkspace(cmd, WorkspaceOptions{Settings: settings})
	if err != nil {
		return err
	}
	defer closeWorkspace(ws)

	path, err := ws.Session.Archive(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("Session archived to %s\n", path)
	return nil
}
