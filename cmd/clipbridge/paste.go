package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newPasteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "paste",
		Short: "Print the host clipboard to stdout (like pbpaste)",
		Long: `Retrieves the current clipboard from a running clipbridge daemon and
writes it to stdout. Binary content is decoded back to raw bytes:

  clipbridge paste > clipboard.txt
  clipbridge paste > screenshot.png`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runPaste(v) },
	}

	f := cmd.Flags()
	f.String("server", "localhost:8765", "clipbridge daemon address")
	addConfigFlag(cmd)

	return cmd
}

func runPaste(v *viper.Viper) error {
	client := newAPIClient(v.GetString("server"))
	p, err := client.getClipboard()
	if err != nil {
		return err
	}

	if p.IsBinary {
		raw, err := base64.StdEncoding.DecodeString(p.Content)
		if err != nil {
			return fmt.Errorf("decode %s payload: %w", p.Mime, err)
		}
		_, err = os.Stdout.Write(raw)
		return err
	}

	_, err = fmt.Print(p.Content)
	return err
}
