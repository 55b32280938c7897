package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/jurisdiction"
)

func rulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate jurisdiction rule tables",
	}
	cmd.AddCommand(rulesLintCmd(a))
	cmd.AddCommand(rulesResolveCmd(a))
	return cmd
}

func rulesLintCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Validate a rule table file against the schema and overlap rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, _, err := a.ruleTable(file)
			if err != nil {
				return err
			}
			table := rt.Table()
			digest, err := table.Digest()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d rule sets across %d jurisdictions (digest %s)\n",
				table.Len(), len(table.Provinces()), digest)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "rule table file (.yaml, .yml or .json)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func rulesResolveCmd(a *app) *cobra.Command {
	var (
		file     string
		province string
		date     string
		latest   bool
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the rule set in force for a jurisdiction on a date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := generic.ParseProvince(province)
			if err != nil {
				return err
			}
			rt, _, err := a.ruleTable(file)
			if err != nil {
				return err
			}
			table := rt.Table()

			var rs jurisdiction.RuleSet
			switch {
			case latest:
				rs, err = table.ResolveLatest(p)
			case date == "":
				rs, err = table.Resolve(p, generic.Today())
			default:
				on, perr := generic.ParseDate(date)
				if perr != nil {
					return perr
				}
				rs, err = table.Resolve(p, on)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, rs.String())
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rs)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", "rule table file; defaults to the configured table")
	f.StringVar(&province, "province", "", "two-letter jurisdiction code (AB, ON, FED, ...)")
	f.StringVar(&date, "date", "", "date the rule set must be in force (YYYY-MM-DD, default today)")
	f.BoolVar(&latest, "latest", false, "newest rule set regardless of dates")
	_ = cmd.MarkFlagRequired("province")
	return cmd
}
