package cliplugins

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"asterix/internal/netif"
)

type InterfacesCommand struct {
	cmd    *cobra.Command
	lister netif.Lister
}

// NewInterfacesCommand lists broadcast addresses from l, nil means the
// platform default.
func NewInterfacesCommand(l netif.Lister) *InterfacesCommand {
	return &InterfacesCommand{lister: l}
}

func (i *InterfacesCommand) Meta() *cobra.Command {
	if i.cmd != nil {
		return i.cmd
	}
	i.cmd = &cobra.Command{
		Use:   "interfaces",
		Short: "Print the broadcast addresses records would be sent to",
		Args:  cobra.NoArgs,
	}
	i.cmd.Flags().Bool("portable", false, "use the portable interface lister instead of netlink")
	return i.cmd
}

func (i *InterfacesCommand) Execute(ctx context.Context, cmd *cobra.Command, args []string) error {
	l := i.lister
	if l == nil {
		l = netif.DefaultLister()
	}
	if portable, _ := cmd.Flags().GetBool("portable"); portable {
		l = netif.NetLister{}
	}

	addrs, err := netif.ListBroadcastAddresses(l)
	if err != nil {
		return err
	}

	for _, a := range addrs {
		fmt.Fprintln(cmd.OutOrStdout(), a.String())
	}
	return nil
}
