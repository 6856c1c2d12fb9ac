package main

import (
	"fmt"
	"strings"
	"time"

	"ih-go/internal/ih"
	"ih-go/internal/model"

	"github.com/spf13/cobra"
)

func printView(v ih.View) {
	if len(v.Items) == 0 {
		fmt.Println("No applications.")
	}
	for _, app := range v.Items {
		fmt.Printf("%s  %-11s  %-20s  %-24s  %s\n",
			app.ID,
			app.Status.Label(),
			app.StudentEmail,
			app.PostingTitle,
			app.LastUpdated.Local().Format("2006-01-02 15:04"),
		)
	}

	counts := make([]string, 0, len(v.Tally))
	for _, s := range model.AllStatuses() {
		counts = append(counts, fmt.Sprintf("%s %d", s.Label(), v.Tally[s]))
	}
	fmt.Printf("\nTotal %d: %s\n", v.Tally.Total(), strings.Join(counts, ", "))
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List applications with a status tally",
	Long: `List the acting student's applications, or every application to the
acting company. --posting narrows to one posting. With --watch the list is
reprinted whenever it changes until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		posting, _ := cmd.Flags().GetString("posting")
		filterRaw, _ := cmd.Flags().GetString("filter")
		watch, _ := cmd.Flags().GetBool("watch")

		var filter model.Status
		if filterRaw != "" {
			s, err := parseStatusArg(filterRaw)
			if err != nil {
				return err
			}
			filter = s
		}

		var scope, key string
		if posting != "" {
			scope, key = "posting", posting
		} else {
			actor, err := actorFromFlags(cmd)
			if err != nil {
				return err
			}
			if actor.Role == model.RoleStudent {
				scope, key = "student", actor.ID
			} else {
				scope, key = "company", actor.CompanyName
			}
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, "list")
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Watch(ctx, scope, key, filter)
		if err != nil {
			return err
		}
		defer p.Close()
		if watch {
			interval, _ := cmd.Flags().GetDuration("interval")
			a.Follow(ctx, interval)
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case v, ok := <-p.Views():
				if !ok {
					return nil
				}
				printView(v)
				if !watch {
					return nil
				}
				fmt.Println()
			}
		}
	},
}

func init() {
	listCmd.Flags().String("posting", "", "Only applications to this posting")
	listCmd.Flags().String("filter", "", "Only show this status (the tally still counts all)")
	listCmd.Flags().BoolP("watch", "w", false, "Keep printing as the list changes")
	listCmd.Flags().Duration("interval", time.Second, "How often --watch checks for changes made by other processes")
}
