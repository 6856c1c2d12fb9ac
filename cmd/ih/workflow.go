package main

import (
	"errors"
	"fmt"
	"strings"

	"ih-go/internal/ih"
	"ih-go/internal/model"

	"github.com/spf13/cobra"
)

func printApplication(app *model.Application) {
	fmt.Printf("Application %s\n", app.ID)
	fmt.Printf("  Posting:  %s (%s at %s)\n", app.PostingID, app.PostingTitle, app.CompanyName)
	fmt.Printf("  Student:  %s <%s>\n", app.StudentID, app.StudentEmail)
	fmt.Printf("  Status:   %s\n", app.Status.Label())
	fmt.Printf("  Applied:  %s\n", app.AppliedDate.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("  Updated:  %s\n", app.LastUpdated.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("  Version:  %d\n", app.Version())
	if app.HasResume() {
		fmt.Printf("  Resume:   %s (%s)\n", app.ResumeFileName, app.ResumeMimeType)
	}
	if app.CompanyNotes != "" {
		fmt.Printf("  Notes:    %s\n", app.CompanyNotes)
	}
}

// apply command
var applyCmd = &cobra.Command{
	Use:   "apply POSTING_ID",
	Short: "Submit or resubmit an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		letter, _ := cmd.Flags().GetString("cover-letter")
		resumePath, _ := cmd.Flags().GetString("resume")
		resumeRef, _ := cmd.Flags().GetString("resume-ref")
		resumeName, _ := cmd.Flags().GetString("resume-name")
		if resumePath != "" && resumeRef != "" {
			return errors.New("--resume and --resume-ref are mutually exclusive")
		}

		a, err := newApp(cmd.Context(), "apply")
		if err != nil {
			return err
		}
		defer a.Close()

		req := ih.SubmitRequest{PostingID: args[0], CoverLetter: letter}
		switch {
		case resumePath != "":
			ref, err := a.UploadResume(cmd.Context(), resumePath)
			if err != nil {
				return err
			}
			req.Resume = &ref
		case resumeRef != "":
			req.Resume = &ih.ResumeRef{Ref: resumeRef, FileName: resumeName}
		}
		if req.Resume != nil {
			if err := unlock(a); err != nil {
				return err
			}
		}

		app, err := a.Service().SubmitApplication(cmd.Context(), actor, req)
		if err != nil {
			return err
		}
		printApplication(app)
		return nil
	},
}

// show command
var showCmd = &cobra.Command{
	Use:   "show APPLICATION_ID",
	Short: "View an application with posting and profile details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "show")
		if err != nil {
			return err
		}
		defer a.Close()

		view, err := a.Service().GetView(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printApplication(view.Application)
		if view.Posting != nil && !view.Posting.IsActive {
			fmt.Println("  (posting closed)")
		}
		if p := view.Profile; p != nil {
			fmt.Printf("  Profile:  %s, %s %s year %d\n", p.Name, p.School, p.Course, p.YearLevel)
			if p.City != "" {
				fmt.Printf("  Location: %s %s\n", p.Barangay, p.City)
			}
			if len(p.Skills) > 0 {
				fmt.Printf("  Skills:   %s\n", strings.Join(p.Skills, ", "))
			}
		}
		fmt.Printf("\nCover letter:\n%s\n", view.Application.CoverLetter)
		return nil
	},
}

// review command
var reviewCmd = &cobra.Command{
	Use:   "review APPLICATION_ID STATUS",
	Short: "Change status and notes together",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		status, err := parseStatusArg(args[1])
		if err != nil {
			return err
		}
		notes, _ := cmd.Flags().GetString("notes")
		version, _ := cmd.Flags().GetInt64("version")

		a, err := newApp(cmd.Context(), "review")
		if err != nil {
			return err
		}
		defer a.Close()

		app, err := a.Service().UpdateStatusAndNotes(cmd.Context(), actor, args[0], status, notes, version)
		if err != nil {
			return conflictHint(err)
		}
		printApplication(app)
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status APPLICATION_ID STATUS",
	Short: "Change an application's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		status, err := parseStatusArg(args[1])
		if err != nil {
			return err
		}
		version, _ := cmd.Flags().GetInt64("version")

		a, err := newApp(cmd.Context(), "status")
		if err != nil {
			return err
		}
		defer a.Close()

		app, err := a.Service().UpdateStatus(cmd.Context(), actor, args[0], status, version)
		if err != nil {
			return conflictHint(err)
		}
		fmt.Printf("%s is now %s (version %d)\n", app.ID, app.Status.Label(), app.Version())
		return nil
	},
}

// notes command
var notesCmd = &cobra.Command{
	Use:   "notes APPLICATION_ID TEXT",
	Short: "Replace the company notes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		version, _ := cmd.Flags().GetInt64("version")

		a, err := newApp(cmd.Context(), "notes")
		if err != nil {
			return err
		}
		defer a.Close()

		app, err := a.Service().UpdateNotes(cmd.Context(), actor, args[0], args[1], version)
		if err != nil {
			return conflictHint(err)
		}
		fmt.Printf("Notes saved on %s (version %d)\n", app.ID, app.Version())
		return nil
	},
}

// override command
var overrideCmd = &cobra.Command{
	Use:   "override APPLICATION_ID STATUS",
	Short: "Set any status, PENDING included, with an audited reason",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		status, err := parseStatusArg(args[1])
		if err != nil {
			return err
		}
		reason, _ := cmd.Flags().GetString("reason")

		a, err := newApp(cmd.Context(), "override")
		if err != nil {
			return err
		}
		defer a.Close()

		app, err := a.Service().OverrideStatus(cmd.Context(), actor, args[0], status, reason)
		if err != nil {
			return err
		}
		fmt.Printf("%s is now %s (override)\n", app.ID, app.Status.Label())
		return nil
	},
}

// withdraw command
var withdrawCmd = &cobra.Command{
	Use:   "withdraw APPLICATION_ID",
	Short: "Withdraw one of your applications",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "withdraw")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().Withdraw(cmd.Context(), actor, args[0]); err != nil {
			return err
		}
		fmt.Printf("Withdrew %s\n", args[0])
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history APPLICATION_ID",
	Short: "View an application's status history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "history")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.Service().StatusHistory(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No status changes recorded.")
			return nil
		}

		for _, e := range entries {
			line := fmt.Sprintf("%s  %-11s -> %-11s  by %s",
				e.ChangedAt.Local().Format("2006-01-02 15:04:05"),
				e.From, e.To, e.ActorID)
			if e.Override {
				line += "  [override: " + e.Reason + "]"
			}
			fmt.Println(line)
		}
		return nil
	},
}

// conflictHint tells the operator how to recover from a stale version.
func conflictHint(err error) error {
	if errors.Is(err, ih.ErrConflict) {
		return fmt.Errorf("%w; run 'ih show' for the current version and retry", err)
	}
	return err
}

func init() {
	applyCmd.Flags().StringP("cover-letter", "m", "", "Cover letter text")
	applyCmd.Flags().String("resume", "", "Resume file to upload and attach")
	applyCmd.Flags().String("resume-ref", "", "Attach a previously uploaded resume by reference")
	applyCmd.Flags().String("resume-name", "resume", "File name for --resume-ref")

	reviewCmd.Flags().StringP("notes", "m", "", "Notes for the student")
	reviewCmd.Flags().Int64("version", 0, "Version the change is based on (0: current)")
	statusCmd.Flags().Int64("version", 0, "Version the change is based on (0: current)")
	notesCmd.Flags().Int64("version", 0, "Version the change is based on (0: current)")

	overrideCmd.Flags().String("reason", "", "Why the status is being overridden")
}
