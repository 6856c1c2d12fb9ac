package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"ih-go/internal/app"
	"ih-go/internal/config"
	"ih-go/internal/model"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file named by the defaults.
func loadConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults.ConfigPath, nil
}

// newApp reads the config and creates an IHApp. The caller must defer app.Close().
// command identifies the CLI command being run (e.g. "apply", "review").
func newApp(ctx context.Context, command string) (*app.IHApp, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewIHApp(ctx, cfg, command)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// actorFromFlags builds the acting identity from the global flags.
// Exactly one of --student or --company must be set.
func actorFromFlags(cmd *cobra.Command) (model.Actor, error) {
	student, _ := cmd.Flags().GetString("student")
	email, _ := cmd.Flags().GetString("email")
	company, _ := cmd.Flags().GetString("company")
	reviewer, _ := cmd.Flags().GetString("reviewer")

	switch {
	case student != "" && company != "":
		return model.Actor{}, errors.New("--student and --company are mutually exclusive")
	case student != "":
		return model.Student(student, email), nil
	case company != "":
		if reviewer == "" {
			reviewer = company
		}
		return model.Company(reviewer, company), nil
	default:
		return model.Actor{}, errors.New("act as someone with --student ID or --company NAME")
	}
}

// readPassphrase prompts on stderr and reads a line without echo when stdin
// is a terminal.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// unlock prompts for the key passphrase when resume blobs are encrypted.
func unlock(a *app.IHApp) error {
	if !a.Encrypted() {
		return nil
	}
	pass, err := readPassphrase("Passphrase: ")
	if err != nil {
		return err
	}
	if err := a.Unlock(pass); err != nil {
		return fmt.Errorf("unlocking keys: %w", err)
	}
	return nil
}

func parseStatusArg(raw string) (model.Status, error) {
	s, err := model.ParseStatus(raw)
	if err != nil {
		return 0, fmt.Errorf("%w (want one of PENDING, REVIEWED, SHORTLISTED, ACCEPTED, REJECTED)", err)
	}
	return s, nil
}

var rootCmd = &cobra.Command{
	Use:          "ih",
	Short:        "Internship application workflow",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("student", "", "Act as the student with this ID")
	rootCmd.PersistentFlags().String("email", "", "Student email recorded on new applications")
	rootCmd.PersistentFlags().String("company", "", "Act as a reviewer for this company")
	rootCmd.PersistentFlags().String("reviewer", "", "Reviewer ID recorded in the status history (default: company name)")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(postingCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(overrideCmd)
	rootCmd.AddCommand(withdrawCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)
}
