package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-flaghooks/core"
)

func newEndpointsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "Show the resolved endpoint for every category",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Category", "Method", "URL", "Headers", "Async"},
				endpointRows(s.listener),
			))
			return nil
		},
	}
	cmd.AddCommand(newEndpointsSetCommand(ctx))
	cmd.AddCommand(newEndpointsDeleteCommand(ctx))
	return cmd
}

func newEndpointsSetCommand(ctx *commandContext) *cobra.Command {
	var (
		headers []string
		async   bool
	)
	cmd := &cobra.Command{
		Use:   "set CATEGORY [URL]",
		Short: "Store the endpoint of a category; omit URL to inherit the base URL",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := core.ParseCategory(args[0])
			if err != nil {
				return err
			}
			options := core.NewEndpointOptions().WithAsync(async)
			if len(args) == 2 {
				options.WithURL(args[1])
			}
			if cmd.Flags().Changed("with-header") {
				parsed, err := parseHeaderFlags(headers)
				if err != nil {
					return err
				}
				if parsed == nil {
					parsed = map[string]string{}
				}
				options.WithHeaders(parsed)
			}

			s, err := ctx.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()
			if s.registry == nil {
				return errNoEndpointStore
			}
			if err := s.registry.Save(cmd.Context(), category, options); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s endpoint\n", category)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&headers, "with-header", nil, "Endpoint header as key=value (repeatable); when absent headers are inherited")
	cmd.Flags().BoolVar(&async, "async", false, "Mark the endpoint for asynchronous delivery")
	return cmd
}

func newEndpointsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete CATEGORY",
		Short: "Remove the stored endpoint of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := core.ParseCategory(args[0])
			if err != nil {
				return err
			}
			s, err := ctx.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()
			if s.registry == nil {
				return errNoEndpointStore
			}
			if err := s.registry.Delete(cmd.Context(), category); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s endpoint\n", category)
			return nil
		},
	}
}

func endpointRows(listener *core.WebhookListener) [][]string {
	base := listener.BaseOptions()
	rows := make([][]string, 0, len(core.Categories()))
	for _, category := range core.Categories() {
		own := listener.Options(category)
		url, ok := own.URL()
		if !ok {
			url, ok = base.URL()
		}
		if !ok {
			url = "-"
		}
		headers := own.Headers()
		if headers == nil {
			headers = base.Headers()
		}
		method := category.Method()
		if method == "" {
			method = "-"
		}
		rows = append(rows, []string{
			category.String(),
			method,
			url,
			formatHeaders(headers),
			strconv.FormatBool(own.Async()),
		})
	}
	return rows
}
