package main

import (
	"errors"
	"fmt"
	"os"

	"ih-go/internal/model"

	"github.com/spf13/cobra"
)

// posting command
var postingCmd = &cobra.Command{
	Use:   "posting",
	Short: "Manage internship postings",
}

var postingAddCmd = &cobra.Command{
	Use:   "add ID TITLE",
	Short: "Publish a posting for the acting company",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		if actor.Role != model.RoleCompany {
			return errors.New("postings are published with --company")
		}

		a, err := newApp(cmd.Context(), "posting add")
		if err != nil {
			return err
		}
		defer a.Close()

		p := &model.Posting{ID: args[0], Title: args[1], CompanyName: actor.CompanyName, IsActive: true}
		if err := a.Catalog().PutPosting(cmd.Context(), p); err != nil {
			return err
		}
		fmt.Printf("Posting %s open: %s at %s\n", p.ID, p.Title, p.CompanyName)
		return nil
	},
}

func setPostingActive(active bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "posting "+cmd.Name())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Catalog().SetPostingActive(cmd.Context(), args[0], active); err != nil {
			return err
		}
		state := "closed"
		if active {
			state = "open"
		}
		fmt.Printf("Posting %s %s\n", args[0], state)
		return nil
	}
}

var postingCloseCmd = &cobra.Command{
	Use:   "close ID",
	Short: "Stop accepting applications",
	Args:  cobra.ExactArgs(1),
	RunE:  setPostingActive(false),
}

var postingOpenCmd = &cobra.Command{
	Use:   "open ID",
	Short: "Accept applications again",
	Args:  cobra.ExactArgs(1),
	RunE:  setPostingActive(true),
}

// profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage student profiles",
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or replace the acting student's profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		if actor.Role != model.RoleStudent {
			return errors.New("profiles are set with --student")
		}

		f := cmd.Flags()
		p := &model.Profile{StudentID: actor.ID}
		p.Name, _ = f.GetString("name")
		p.School, _ = f.GetString("school")
		p.Course, _ = f.GetString("course")
		p.YearLevel, _ = f.GetInt("year")
		p.City, _ = f.GetString("city")
		p.Barangay, _ = f.GetString("barangay")
		p.Skills, _ = f.GetStringSlice("skills")
		p.PreferredTypes, _ = f.GetStringSlice("preferred")

		a, err := newApp(cmd.Context(), "profile set")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Catalog().PutProfile(cmd.Context(), p); err != nil {
			return err
		}
		fmt.Printf("Profile saved for %s\n", actor.ID)
		return nil
	},
}

// resume command
var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Store and retrieve resumes",
}

var resumeUploadCmd = &cobra.Command{
	Use:   "upload PATH",
	Short: "Store a resume and print its reference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "resume upload")
		if err != nil {
			return err
		}
		defer a.Close()

		ref, err := a.UploadResume(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", ref.Ref, ref.FileName)
		return nil
	},
}

var resumeShowCmd = &cobra.Command{
	Use:   "show APPLICATION_ID",
	Short: "Save the resume attached to an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("out")
		if dir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}
			dir = wd
		}

		a, err := newApp(cmd.Context(), "resume show")
		if err != nil {
			return err
		}
		defer a.Close()

		path, err := a.SaveResume(cmd.Context(), args[0], dir)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", path)
		return nil
	},
}

func init() {
	postingCmd.AddCommand(postingAddCmd)
	postingCmd.AddCommand(postingCloseCmd)
	postingCmd.AddCommand(postingOpenCmd)

	profileCmd.AddCommand(profileSetCmd)
	profileSetCmd.Flags().String("name", "", "Full name")
	profileSetCmd.Flags().String("school", "", "School")
	profileSetCmd.Flags().String("course", "", "Course or degree program")
	profileSetCmd.Flags().Int("year", 0, "Year level")
	profileSetCmd.Flags().String("city", "", "City")
	profileSetCmd.Flags().String("barangay", "", "Barangay")
	profileSetCmd.Flags().StringSlice("skills", nil, "Comma-separated skills")
	profileSetCmd.Flags().StringSlice("preferred", nil, "Comma-separated preferred internship types")

	resumeCmd.AddCommand(resumeUploadCmd)
	resumeCmd.AddCommand(resumeShowCmd)
	resumeShowCmd.Flags().StringP("out", "o", "", "Directory to write the resume into (default: current directory)")
}
