package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipbridge/internal/snapshot"
)

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy stdin to the host clipboard (like pbcopy)",
		Long: `Reads stdin and sends it to a running clipbridge daemon. Non-text data
is base64-encoded for transport:

  clipbridge copy < notes.txt
  clipbridge copy --mime image/png < screenshot.png`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runCopy(v) },
	}

	f := cmd.Flags()
	f.String("server", "localhost:8765", "clipbridge daemon address")
	f.String("mime", snapshot.MimeText, "MIME type of the data being copied")
	addConfigFlag(cmd)

	return cmd
}

func runCopy(v *viper.Viper) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	mime := v.GetString("mime")
	content := string(data)
	encoded := false
	if mime != snapshot.MimeText {
		content = base64.StdEncoding.EncodeToString(data)
		encoded = true
	}

	client := newAPIClient(v.GetString("server"))
	return client.setClipboard(content, mime, encoded)
}
