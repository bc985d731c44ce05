package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/orbitcrm/assist/config"
	"github.com/orbitcrm/assist/internal/assistant/kb"
)

func kbCheckCMD() *cobra.Command {
	var cfgPath string
	var check = &cobra.Command{
		Use:   "kb-check",
		Short: "Load the knowledge base assets and report entry counts per role",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			repo := kb.NewRepository(cfg.Knowledge.AssetDir, log.New(log.Writer(), "[KB] ", log.LstdFlags))
			empty := false
			for _, role := range []kb.Role{kb.RoleAdmin, kb.RoleEmployee, kb.RoleCustomer} {
				entries := repo.Entries(role)
				fmt.Printf("%-10s %d entries\n", role, len(entries))
				if len(entries) == 0 {
					empty = true
				}
			}
			if empty {
				return fmt.Errorf("one or more roles have no knowledge entries")
			}
			return nil
		},
	}
	check.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return check
}
