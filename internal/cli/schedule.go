package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewScheduleCmd создаёт группу команд для управления schedules.
func NewScheduleCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage schedules",
	}

	cmd.AddCommand(
		newScheduleListCmd(clientFn, outputFn),
		newScheduleCreateCmd(clientFn, outputFn),
		newScheduleDeleteCmd(clientFn, outputFn),
		newScheduleToggleCmd(clientFn, outputFn, true),
		newScheduleToggleCmd(clientFn, outputFn, false),
	)

	return cmd
}

var scheduleHeaders = []string{"ID", "FLOW_ID", "NAME", "CRON", "INTERVAL", "TIMEZONE", "ENABLED", "NEXT_DUE"}

func scheduleRow(s ScheduleResponse) []string {
	return []string{
		s.ID, s.FlowID, s.Name, s.CronExpr, formatInterval(s.IntervalSec),
		s.Timezone, strconv.FormatBool(s.Enabled), s.NextDueAt,
	}
}

func newScheduleListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var flowID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			schedules, err := client.ListSchedules(flowID)
			if err != nil {
				return err
			}

			rows := make([][]string, len(schedules))
			for i, s := range schedules {
				rows[i] = scheduleRow(s)
			}

			out.Print(scheduleHeaders, rows, schedules)
			return nil
		},
	}

	cmd.Flags().StringVar(&flowID, "flow-id", "", "Filter by flow ID")

	return cmd
}

func newScheduleCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var cronExpr string
	var intervalSec int
	var timezone string
	var disabled bool
	var contextPairs []string

	cmd := &cobra.Command{
		Use:   "create FLOW_ID",
		Short: "Create a schedule for a flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if (cronExpr == "") == (intervalSec == 0) {
				return fmt.Errorf("exactly one of --cron or --interval is required")
			}

			overrides, err := ParseContext(contextPairs)
			if err != nil {
				return err
			}

			enabled := !disabled
			schedule, err := client.CreateSchedule(args[0], CreateScheduleRequest{
				Name:        name,
				CronExpr:    cronExpr,
				IntervalSec: intervalSec,
				Timezone:    timezone,
				Enabled:     &enabled,
				Context:     overrides,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule created: %s", schedule.ID))
			out.Print(scheduleHeaders, [][]string{scheduleRow(*schedule)}, schedule)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Schedule name")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression (e.g. '0 * * * *' or '@hourly')")
	cmd.Flags().IntVar(&intervalSec, "interval", 0, "Interval in seconds")
	cmd.Flags().StringVar(&timezone, "timezone", "", "Timezone (e.g. 'Europe/Moscow'), UTC by default")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Create the schedule disabled")
	cmd.Flags().StringArrayVar(&contextPairs, "context", nil, "Context values as KEY=VALUE (repeatable)")

	return cmd
}

func newScheduleDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteSchedule(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule deleted: %s", args[0]))
			return nil
		},
	}
}

// newScheduleToggleCmd создаёт enable или disable.
func newScheduleToggleCmd(clientFn func() *Client, outputFn func() *Output, enabled bool) *cobra.Command {
	use, short, done := "disable ID", "Disable a schedule", "disabled"
	if enabled {
		use, short, done = "enable ID", "Enable a schedule", "enabled"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if _, err := client.SetScheduleEnabled(args[0], enabled); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule %s: %s", done, args[0]))
			return nil
		},
	}
}

func formatInterval(sec int) string {
	if sec <= 0 {
		return ""
	}
	return strconv.Itoa(sec) + "s"
}
