package cliplugins

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"asterix/internal/forwarder"
)

type VersionCommand struct {
	cmd *cobra.Command
}

func NewVersionCommand() *VersionCommand {
	return &VersionCommand{}
}

func (v *VersionCommand) Meta() *cobra.Command {
	if v.cmd == nil {
		v.cmd = &cobra.Command{
			Use:   "version",
			Short: "Print the forwarder plugin version",
			Args:  cobra.NoArgs,
		}
	}
	return v.cmd
}

func (v *VersionCommand) Execute(ctx context.Context, cmd *cobra.Command, args []string) error {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n%s\n",
		forwarder.PluginName, forwarder.PluginVersion, forwarder.PluginDescription)
	return nil
}
