package cliplugins

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"asterix/internal/encoder"
	"asterix/internal/feed"
)

type EncodeCommand struct {
	cmd   *cobra.Command
	stdin io.Reader
}

func NewEncodeCommand(stdin io.Reader) *EncodeCommand {
	return &EncodeCommand{stdin: stdin}
}

func (e *EncodeCommand) Meta() *cobra.Command {
	if e.cmd != nil {
		return e.cmd
	}
	e.cmd = &cobra.Command{
		Use:   "encode [beacon-json]",
		Short: "Encode one beacon and print the record as hex",
		Long: "Encodes a JSON beacon, given as argument or as the first line of stdin, " +
			"into an ASTERIX cat. 62 record. The descriptor, if any, is always attached.",
		Args: cobra.MaximumNArgs(1),
	}
	e.cmd.Flags().BoolP("decode", "d", false, "also print the decoded record")
	return e.cmd
}

func (e *EncodeCommand) Execute(ctx context.Context, cmd *cobra.Command, args []string) error {
	var line string
	if len(args) == 1 {
		line = args[0]
	} else {
		r := bufio.NewReader(e.stdin)
		s, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("read beacon: %w", err)
		}
		line = s
	}

	ev, err := feed.Parse([]byte(strings.TrimSpace(line)))
	if err != nil {
		return err
	}

	rec := encoder.Encode(ev.Beacon, ev.Descriptor)
	fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(rec))

	if decode, _ := cmd.Flags().GetBool("decode"); decode {
		dec, err := encoder.Decode(rec)
		if err != nil {
			return err
		}
		printRecord(cmd.OutOrStdout(), dec)
	}

	return nil
}
