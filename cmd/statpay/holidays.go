package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/jurisdiction"
)

func holidaysCmd(a *app) *cobra.Command {
	var (
		province string
		year     int
	)
	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "List statutory holidays for a jurisdiction and year",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := generic.ParseProvince(province)
			if err != nil {
				return err
			}
			if year == 0 {
				year = time.Now().Year()
			}
			holidays := jurisdiction.StatutoryHolidays(p, year)
			if len(holidays) == 0 {
				return fmt.Errorf("no statutory holidays defined for %s", p)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tWEEKDAY\tHOLIDAY")
			for _, h := range holidays {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", h.Date, h.Date.Weekday(), h.Name)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&province, "province", "", "two-letter jurisdiction code")
	cmd.Flags().IntVar(&year, "year", 0, "calendar year (default current year)")
	_ = cmd.MarkFlagRequired("province")
	return cmd
}
