package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"zapis/internal/api"
	"zapis/internal/models"
	"zapis/internal/scheduling"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"
)

type remoteOptions struct {
	addr   string
	apiKey string
	extra  string
	tls    bool
}

func (r *remoteOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.addr, "remote", "", "gRPC address of a running server; checks locally when empty")
	cmd.Flags().StringVar(&r.apiKey, "api-key", "", "API key for --remote")
	cmd.Flags().StringVar(&r.extra, "api-extra", "", "extra auth header for --remote")
	cmd.Flags().BoolVar(&r.tls, "tls", false, "use TLS for --remote")
}

func (r *remoteOptions) dial() (*api.Client, error) {
	return api.Dial(api.ClientConfig{Address: r.addr, APIKey: r.apiKey, Extra: r.extra, TLS: r.tls})
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check availability without booking",
	}
	cmd.AddCommand(newCheckAppointmentCmd(opts))
	cmd.AddCommand(newCheckLocationCmd(opts))
	return cmd
}

func newCheckAppointmentCmd(opts *rootOptions) *cobra.Command {
	var workerID, serviceID int64
	var at string
	var remote remoteOptions

	c := &cobra.Command{
		Use:   "appointment",
		Short: "Check whether a worker can take a service at a given time",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if remote.addr != "" {
				client, err := remote.dial()
				if err != nil {
					return err
				}
				defer client.Close()
				resp, err := client.CheckAppointment(ctx, workerID, serviceID, at)
				if err != nil {
					return err
				}
				return printRemoteVerdict(cmd.OutOrStdout(), resp)
			}

			scheduledFor, err := models.ParseDateTime(at)
			if err != nil {
				return err
			}
			a, closer, err := opts.openApp(ctx)
			if err != nil {
				return err
			}
			defer closer.Close()

			verdict, err := a.Bookings.CheckAppointment(ctx, workerID, serviceID, scheduledFor)
			if err != nil {
				return err
			}
			return printVerdict(cmd.OutOrStdout(), verdict)
		},
	}

	c.Flags().Int64Var(&workerID, "worker", 0, "worker id")
	c.Flags().Int64Var(&serviceID, "service", 0, "service id")
	c.Flags().StringVar(&at, "at", "", "start, YYYY-MM-DDTHH:MM:SS")
	_ = c.MarkFlagRequired("worker")
	_ = c.MarkFlagRequired("service")
	_ = c.MarkFlagRequired("at")
	remote.register(c)
	return c
}

func newCheckLocationCmd(opts *rootOptions) *cobra.Command {
	var locationID int64
	var day, start, end string
	var remote remoteOptions

	c := &cobra.Command{
		Use:   "location",
		Short: "Check whether a location is free for a weekly window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if remote.addr != "" {
				client, err := remote.dial()
				if err != nil {
					return err
				}
				defer client.Close()
				resp, err := client.CheckLocation(ctx, locationID, day, start, end)
				if err != nil {
					return err
				}
				return printRemoteVerdict(cmd.OutOrStdout(), resp)
			}

			weekday, err := models.ParseWeekday(day)
			if err != nil {
				return err
			}
			window, err := parseWindow(start, end)
			if err != nil {
				return err
			}
			a, closer, err := opts.openApp(ctx)
			if err != nil {
				return err
			}
			defer closer.Close()

			verdict, err := a.Schedules.CheckLocation(ctx, locationID, weekday, window)
			if err != nil {
				return err
			}
			return printVerdict(cmd.OutOrStdout(), verdict)
		},
	}

	c.Flags().Int64Var(&locationID, "location", 0, "location id")
	c.Flags().StringVar(&day, "day", "", "day of week, name or 0-6 from Monday")
	c.Flags().StringVar(&start, "start", "", "window start, HH:MM[:SS]")
	c.Flags().StringVar(&end, "end", "", "window end, HH:MM[:SS]")
	for _, name := range []string{"location", "day", "start", "end"} {
		_ = c.MarkFlagRequired(name)
	}
	remote.register(c)
	return c
}

func parseWindow(start, end string) (models.TimeWindow, error) {
	s, err := models.ParseTimeOfDay(start)
	if err != nil {
		return models.TimeWindow{}, err
	}
	e, err := models.ParseTimeOfDay(end)
	if err != nil {
		return models.TimeWindow{}, err
	}
	return models.TimeWindow{Start: s, End: e}, nil
}

func printVerdict(w io.Writer, v scheduling.Verdict) error {
	_, err := fmt.Fprintln(w, v.String())
	return err
}

func printRemoteVerdict(w io.Writer, resp *structpb.Struct) error {
	fields := resp.GetFields()
	line := fields["verdict"].GetStringValue()
	if detail := fields["detail"].GetStringValue(); detail != "" {
		line += ": " + detail
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
