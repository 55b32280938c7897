package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/holidaypay"
	"github.com/warp/statpay/jurisdiction"
)

func computeCmd(a *app) *cobra.Command {
	var (
		requestFile string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute holiday pay for one request file",
		Long: `Reads a JSON compute request (employee, work_records, holiday and the
optional as_of_config_date, use_latest_config, pay_period_end) and prints
the total with its audit trail. The holiday name and province are filled
in from the statutory calendar when omitted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(requestFile)
			if err != nil {
				return fmt.Errorf("read request: %w", err)
			}
			var req holidaypay.ComputeRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("decode request %s: %w", requestFile, err)
			}
			fillHoliday(&req)

			rt, source, err := a.ruleTable("")
			if err != nil {
				return err
			}
			res, err := holidaypay.NewCalculator(rt.Table()).ComputeHolidayPay(req)
			if err != nil {
				return err
			}
			log.Debug().Str("rules", source).Str("employee", string(res.EmployeeID)).Msg("computed")

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintf(out, "total pay %s\n", generic.FormatMoney(res.TotalPay))
			fmt.Fprint(out, res.Audit.Render())
			return nil
		},
	}
	cmd.Flags().StringVarP(&requestFile, "file", "f", "", "compute request JSON file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func fillHoliday(req *holidaypay.ComputeRequest) {
	if req.Holiday.Province == "" {
		req.Holiday.Province = req.Employee.Province
	}
	if req.Holiday.Name != "" || req.Holiday.Date.IsZero() {
		return
	}
	if h, ok := jurisdiction.FindHoliday(req.Holiday.Province, req.Holiday.Date); ok {
		req.Holiday = h
	}
}
