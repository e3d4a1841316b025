package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var showAt string

// showDomainCmd prints the current or historical state of a domain.
var showDomainCmd = &cobra.Command{
	Use:   "show-domain <name>",
	Short: "Print a domain's current state, or its state at a past instant with --at",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		store, closeStore, err := openStore(ctx)
		if err != nil {
			fatal("Failed to open store", err)
		}
		defer closeStore()

		if showAt != "" {
			at, err := parseRFC3339(showAt)
			if err != nil {
				fatal("Invalid --at", err)
			}
			m, err := store.FindAt(ctx, args[0], at)
			if err != nil {
				fatal("Lookup failed", err)
			}
			fmt.Printf("As of %s:\n", m.CommitTime.Format("2006-01-02 15:04:05 MST"))
			os.Stdout.Write(append(m.Payload, '\n'))
			return
		}

		d, err := store.Find(ctx, args[0])
		if err != nil {
			fatal("Lookup failed", err)
		}
		out, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			fatal("Encode failed", err)
		}
		os.Stdout.Write(append(out, '\n'))
		fmt.Printf("revisions: %d\n", d.RevisionIndex().Len())
	},
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func init() {
	rootCmd.AddCommand(showDomainCmd)
	showDomainCmd.Flags().StringVar(&showAt, "at", "", "RFC 3339 instant to reconstruct state at")
}
