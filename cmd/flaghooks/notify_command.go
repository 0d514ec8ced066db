package main

import (
	"errors"
	"fmt"
	"strings"

	gocmd "github.com/goliatone/go-command"
	"github.com/spf13/cobra"

	flaghooks "github.com/goliatone/go-flaghooks"
	"github.com/goliatone/go-flaghooks/command"
	"github.com/goliatone/go-flaghooks/core"
)

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	var (
		event       string
		key         string
		value       bool
		id          int64
		description string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send one flag event to its webhook endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(key) == "" {
				return errors.New("--key is required")
			}
			flag := core.NewFlag(key, value)
			flag.Metadata.ID = id
			flag.Metadata.Description = description
			flag.Metadata.Tags = tags

			category, ok := core.CategoryForEvent(event, flag)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Event %q ignored\n", event)
				return nil
			}

			s, err := ctx.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			facade, err := flaghooks.NewFacade(s.listener)
			if err != nil {
				return err
			}
			collector := gocmd.NewResult[core.DeliveryResult]()
			runCtx := gocmd.ContextWithResult(cmd.Context(), collector)
			if err := facade.Commands().Dispatch.Execute(runCtx, command.DispatchMessage{Category: category, Flag: flag}); err != nil {
				if status, body, rejected := core.RejectionDetails(err); rejected {
					fmt.Fprintf(cmd.ErrOrStderr(), "Endpoint rejected %s notification with %d: %s\n", category, status, body)
				}
				return err
			}

			result, _ := collector.Load()
			if result.Queued {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s queued (%s)\n", result.Method, result.URL, result.DeliveryID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %d (%s)\n", result.Method, result.URL, result.StatusCode, result.DeliveryID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&event, "event", "e", core.EventChange, "Flag event: change or removal")
	cmd.Flags().StringVarP(&key, "key", "k", "", "Flag key")
	cmd.Flags().BoolVar(&value, "value", false, "Flag value")
	cmd.Flags().Int64Var(&id, "id", 0, "Persisted flag id (0 means not yet persisted)")
	cmd.Flags().StringVar(&description, "description", "", "Flag description")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Flag tag (repeatable)")
	return cmd
}
