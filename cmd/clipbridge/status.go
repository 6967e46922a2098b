package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindViper(cmd, v)
		},
		RunE: func(_ *cobra.Command, _ []string) error { return runStatus(v) },
	}

	f := cmd.Flags()
	f.String("server", "localhost:8765", "clipbridge daemon address")
	f.Bool("json", false, "output raw JSON")
	addConfigFlag(cmd)

	return cmd
}

func runStatus(v *viper.Viper) error {
	client := newAPIClient(v.GetString("server"))
	st, err := client.status()
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	if v.GetBool("json") {
		enc, _ := json.MarshalIndent(st, "", "  ")
		fmt.Println(string(enc))
		return nil
	}

	clip := "unavailable"
	if st.ClipboardAvailable {
		clip = "available"
	}

	w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Running:\t%v\n", st.Running)
	fmt.Fprintf(w, "Address:\t%s\n", v.GetString("server"))
	fmt.Fprintf(w, "Host IP:\t%s\n", st.IP)
	fmt.Fprintf(w, "Clipboard:\t%s\n", clip)
	return w.Flush()
}
