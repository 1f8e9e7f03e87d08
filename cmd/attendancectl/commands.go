package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/export"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/handler"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/service"
)

type opener func(cmd *cobra.Command, publish bool) (*app, error)

func newMigrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations (postgres) or create indexes (mongo)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.stores.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s store up to date, %d migrations applied\n", a.stores.Driver, n)
			return nil
		},
	}
}

func newWeekCmd(open opener) *cobra.Command {
	var (
		date     string
		shift    int
		clientID string
	)

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Print the attendance grid of a week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			ref := a.service.Today()
			if date != "" {
				if ref, err = domain.ParseDate(date); err != nil {
					return err
				}
			}

			window := a.service.ResolveWeek(ref, shift)
			grid, err := a.service.LoadWeek(cmd.Context(), window.Start, filterFor(clientID))
			if err != nil {
				return err
			}
			return printGrid(cmd.OutOrStdout(), grid)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "any date of the week, YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&shift, "shift", 0, "move by this many weeks")
	cmd.Flags().StringVar(&clientID, "client", "", "only agents of this client")
	return cmd
}

func newSetCmd(open opener) *cobra.Command {
	var (
		extra string
		by    string
	)

	cmd := &cobra.Command{
		Use:   "set AGENT DATE STATUS",
		Short: "Set one agent's status on one date",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := domain.ParseDate(args[1])
			if err != nil {
				return err
			}
			status, err := domain.ParseStatus(args[2])
			if err != nil {
				return err
			}

			in := service.SetStatusInput{AgentID: args[0], Date: date, Status: status, UpdatedBy: by}
			if cmd.Flags().Changed("extra-hours") {
				hours, err := decimal.NewFromString(extra)
				if err != nil {
					return fmt.Errorf("invalid --extra-hours %q", extra)
				}
				in.ExtraHours = &hours
			}

			a, err := open(cmd, true)
			if err != nil {
				return err
			}
			defer a.close()

			entry, err := a.service.SetStatus(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s extra=%s\n",
				entry.AgentID, domain.FormatDate(entry.Date), handler.ViewOf(entry.Status).Label, entry.ExtraHours)
			return nil
		},
	}

	cmd.Flags().StringVar(&extra, "extra-hours", "", "extra hours worked, e.g. 1.5 (omit to keep the stored value)")
	cmd.Flags().StringVar(&by, "by", os.Getenv("USER"), "editor recorded on the entry")
	return cmd
}

func newGroupCmd(open opener) *cobra.Command {
	var (
		agents []string
		from   string
		to     string
		status string
		by     string
	)

	cmd := &cobra.Command{
		Use:   "group",
		Short: "Set one status for several agents over a date range (weekends become day-off)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromDate, err := domain.ParseDate(from)
			if err != nil {
				return err
			}
			toDate, err := domain.ParseDate(to)
			if err != nil {
				return err
			}
			st, err := domain.ParseStatus(status)
			if err != nil {
				return err
			}

			a, err := open(cmd, true)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.service.ApplyGroup(cmd.Context(), service.GroupInput{
				AgentIDs:  agents,
				From:      fromDate,
				To:        toDate,
				Status:    st,
				UpdatedBy: by,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "written %d of %d\n", result.Written, result.Total)
			for _, f := range result.Failed {
				fmt.Fprintf(out, "  failed %s %s: %s\n", f.AgentID, f.Date, f.Message)
			}
			if result.Partial() {
				return fmt.Errorf("%d writes failed", len(result.Failed))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&agents, "agents", nil, "agent ids, comma separated")
	cmd.Flags().StringVar(&from, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date, YYYY-MM-DD")
	cmd.Flags().StringVar(&status, "status", "", "status to apply")
	cmd.Flags().StringVar(&by, "by", os.Getenv("USER"), "editor recorded on the entries")
	_ = cmd.MarkFlagRequired("agents")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func newReportCmd(open opener) *cobra.Command {
	var (
		agentID  string
		month    string
		start    string
		end      string
		clientID string
		xlsxPath string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print monthly attendance reports (month-to-date by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			from, to, err := a.service.ReportRange(month, start, end)
			if err != nil {
				return err
			}

			var reports []domain.MonthlyReport
			if agentID != "" {
				r, err := a.service.ComputeReport(cmd.Context(), agentID, from, to)
				if err != nil {
					return err
				}
				reports = []domain.MonthlyReport{*r}
			} else {
				reports, err = a.service.ComputeTeamReport(cmd.Context(), from, to, filterFor(clientID))
				if err != nil {
					return err
				}
			}

			if xlsxPath != "" {
				return writeWorkbook(cmd.OutOrStdout(), xlsxPath, from, to, reports)
			}
			return printReports(cmd.OutOrStdout(), from, to, reports)
		},
	}

	cmd.Flags().StringVar(&agentID, "agent", "", "report a single agent")
	cmd.Flags().StringVar(&month, "month", "", "completed month, YYYY-MM")
	cmd.Flags().StringVar(&start, "start", "", "first date, YYYY-MM-DD (with --end)")
	cmd.Flags().StringVar(&end, "end", "", "last date, YYYY-MM-DD (with --start)")
	cmd.Flags().StringVar(&clientID, "client", "", "only agents of this client")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write an xlsx workbook to this path instead of printing")
	cmd.MarkFlagsMutuallyExclusive("month", "start")
	cmd.MarkFlagsMutuallyExclusive("month", "end")
	cmd.MarkFlagsMutuallyExclusive("agent", "client")
	return cmd
}

func newAgentCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Maintain the local agent directory",
	}

	var clientFilter string
	list := &cobra.Command{
		Use:  "list",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			agents, err := a.service.ListAgents(cmd.Context(), filterFor(clientFilter))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPOSITION\tCLIENT\tHOME")
			for _, ag := range agents {
				client := ""
				if ag.ClientID != nil {
					client = *ag.ClientID
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", ag.ID, ag.Name, ag.Position, client, ag.WorksFromHome)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&clientFilter, "client", "", "only agents of this client")

	var agent domain.Agent
	var clientID string
	upsert := &cobra.Command{
		Use:  "upsert ID NAME",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			agent.ID, agent.Name = args[0], args[1]
			if clientID != "" {
				agent.ClientID = &clientID
			}
			if err := a.stores.Directory.UpsertAgent(cmd.Context(), agent); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "agent %s saved\n", agent.ID)
			return nil
		},
	}
	upsert.Flags().StringVar(&agent.Position, "position", "", "job title")
	upsert.Flags().StringVar(&clientID, "client", "", "client the agent works for")
	upsert.Flags().BoolVar(&agent.WorksFromHome, "home", false, "agent works from home by default")

	del := &cobra.Command{
		Use:  "delete ID",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.stores.Directory.DeleteAgent(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "agent %s removed, history kept\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, upsert, del)
	return cmd
}

func newClientCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Maintain the local client directory",
	}

	list := &cobra.Command{
		Use:  "list",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			clients, err := a.service.ListClients(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, c := range clients {
				fmt.Fprintf(tw, "%s\t%s\n", c.ID, c.Name)
			}
			return tw.Flush()
		},
	}

	upsert := &cobra.Command{
		Use:  "upsert ID NAME",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.stores.Directory.UpsertClient(cmd.Context(), domain.Client{ID: args[0], Name: args[1]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "client %s saved\n", args[0])
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a client; its agents are kept unassigned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.stores.Directory.DeleteClient(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "client %s removed\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, upsert, del)
	return cmd
}

func filterFor(clientID string) domain.AgentFilter {
	if clientID == "" {
		return domain.AgentFilter{}
	}
	return domain.AgentFilter{ClientID: &clientID}
}

func printGrid(w io.Writer, grid *domain.WeekGrid) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := []string{"AGENT"}
	for _, d := range grid.Window.Days {
		header = append(header, d.Name[:3]+" "+d.Display)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, row := range grid.Rows {
		cols := []string{row.Agent.Name}
		for _, c := range row.Cells {
			cell := strings.TrimSpace(handler.ViewOf(c.Status).Label)
			if !c.ExtraHours.IsZero() {
				cell += " +" + c.ExtraHours.String() + "h"
			}
			cols = append(cols, cell)
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	return tw.Flush()
}

func printReports(w io.Writer, from, to time.Time, reports []domain.MonthlyReport) error {
	fmt.Fprintf(w, "Attendance %s to %s\n\n", from.Format(domain.DisplayLayout), to.Format(domain.DisplayLayout))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "AGENT\tOFFICE\tHOME\tABSENT\tSICK\tVACATION\tHOLIDAY\tDAY OFF\tWORK HOLIDAY\tSUNDAY\tEXTRA\tHOURS\t")
	for _, r := range reports {
		name := r.AgentName
		if name == "" {
			name = r.AgentID
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\t\n",
			name, r.PresentInOffice, r.WorkingFromHome, r.Absent, r.SickLeave, r.Vacation,
			r.Holiday, r.DayOff, r.WorkOnHoliday, r.SundayWork, r.ExtraHours, r.WorkingHours)
	}
	return tw.Flush()
}

func writeWorkbook(w io.Writer, path string, from, to time.Time, reports []domain.MonthlyReport) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := export.WriteTeamReport(f, from, to, reports); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %d agents to %s\n", len(reports), path)
	return nil
}
