package cliplugins

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/spf13/cobra"

	"asterix/internal/beacon"
	"asterix/internal/encoder"
	"asterix/internal/listener"
	"asterix/internal/transport"
)

type ListenCommand struct {
	cmd *cobra.Command
	app *AppContext
}

func NewListenCommand(app *AppContext) *ListenCommand {
	return &ListenCommand{app: app}
}

func (l *ListenCommand) Meta() *cobra.Command {
	if l.cmd != nil {
		return l.cmd
	}
	l.cmd = &cobra.Command{
		Use:   "listen",
		Short: "Print ASTERIX cat. 62 records received over UDP",
		Long: "Binds the broadcast port, or joins a multicast group with --group, and prints " +
			"every decoded record until interrupted.",
		Args: cobra.NoArgs,
	}
	l.cmd.Flags().IntP("port", "p", 0, "UDP port (default 4445, or 4446 with --group)")
	l.cmd.Flags().StringP("group", "g", "", "multicast group to join")
	l.cmd.Flags().String("interface", "", "interface to join the group on")
	return l.cmd
}

func (l *ListenCommand) Execute(ctx context.Context, cmd *cobra.Command, args []string) error {
	_, log, err := l.app.load(cmd)
	if err != nil {
		return err
	}

	port, _ := cmd.Flags().GetInt("port")
	group, _ := cmd.Flags().GetString("group")
	ifname, _ := cmd.Flags().GetString("interface")

	if port == 0 {
		port = transport.DefaultBroadcastPort
		if group != "" {
			port = transport.DefaultMulticastPort
		}
	}

	conn, err := listener.Open(listener.Config{Group: group, Interface: ifname, Port: port})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return listener.Serve(ctx, conn, log, func(rec encoder.Record, from *net.UDPAddr) {
		fmt.Fprintf(out, "from %s ", from)
		printRecord(out, rec)
	})
}

func printRecord(w io.Writer, rec encoder.Record) {
	b := rec.Beacon
	fmt.Fprintf(w, "%s type=%d/%d %s lat=%.7f lon=%.7f alt=%dm vs=%.1fm/s gs=%.1fkm/h trk=%.1f turn=%.1f errs=%d",
		beacon.FormatAddress(b.Address), b.AddressType, b.AircraftType,
		b.Timestamp.Format(time.RFC3339),
		b.Lat, b.Lon, b.Altitude, b.ClimbRate, b.GroundSpeed, b.Track, b.TurnRate, b.ErrorCount,
	)
	if d := rec.Descriptor; d != nil {
		fmt.Fprintf(w, " reg=%q cn=%q owner=%q base=%q model=%q freq=%q tracked=%t identified=%t",
			d.RegNumber, d.CN, d.Owner, d.HomeBase, d.Model, d.FreqMhz, d.Tracked, d.Identified)
	}
	fmt.Fprintln(w)
}
