package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"annal/internal/domain"
	"annal/pkg/sentinel"
)

var (
	createRegistrar   string
	createRegistrant  string
	createNameservers []string
	createPeriod      int
	createPassword    string
)

// createDomainCmd registers a new domain directly in the store.
var createDomainCmd = &cobra.Command{
	Use:   "create-domain <name>",
	Short: "Register a new domain",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		store, closeStore, err := openStore(ctx)
		if err != nil {
			fatal("Failed to open store", err)
		}
		defer closeStore()

		name := args[0]
		if _, err := store.Find(ctx, name); err == nil {
			fatal("Domain already registered", errors.New(name))
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			fatal("Lookup failed", err)
		}

		d, err := domain.New(name, createRegistrar, createPeriod)
		if err != nil {
			fatal("Invalid domain", err)
		}
		d.Registrant = createRegistrant
		d.Nameservers = createNameservers
		if createPassword != "" {
			if err := d.SetAuthInfo(createPassword); err != nil {
				fatal("Failed to set auth info", err)
			}
		}

		if err := store.Save(ctx, d); err != nil {
			fatal("Save failed", err)
		}
		fmt.Printf("Created %s for registrar %s (%d year(s))\n", d.Name, d.RegistrarID, d.PeriodYears)
	},
}

func init() {
	rootCmd.AddCommand(createDomainCmd)
	createDomainCmd.Flags().StringVar(&createRegistrar, "registrar", "", "Sponsoring registrar ID")
	createDomainCmd.Flags().StringVar(&createRegistrant, "registrant", "", "Registrant contact")
	createDomainCmd.Flags().StringSliceVar(&createNameservers, "nameservers", nil, "Authoritative nameservers")
	createDomainCmd.Flags().IntVar(&createPeriod, "period", 1, "Registration period in years")
	createDomainCmd.Flags().StringVar(&createPassword, "password", "", "Transfer authorization password")
	_ = createDomainCmd.MarkFlagRequired("registrar")
}
