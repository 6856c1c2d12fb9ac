package main

import (
	"fmt"

	"ih-go/internal/app"
	"ih-go/internal/config"
	"ih-go/internal/encryption"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		instanceID := uuid.New().String()
		cfg := config.NewConfig(instanceID, defaults.BaseDir)

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Instance ID: %s\n", instanceID)
		fmt.Printf("Base Dir:    %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Instance ID:     %s\n", cfg.InstanceID)
		fmt.Printf("Base Dir:        %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:         %s\n", cfg.LogDir)
		fmt.Printf("Database:        %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		switch cfg.BlobStore.Type {
		case "filesystem":
			fmt.Printf("Blob Store:      filesystem %s\n", cfg.BlobStore.FSRoot)
		case "s3":
			fmt.Printf("Blob Store:      s3://%s/%s\n", cfg.BlobStore.S3Bucket, cfg.BlobStore.S3Prefix)
		default:
			fmt.Printf("Blob Store:      %s\n", cfg.BlobStore.Type)
		}
		fmt.Printf("Encryption:      %s\n", cfg.Encryption.Type)
		fmt.Printf("Resume Max Size: %d bytes\n", cfg.Resume.MaxSize)
		fmt.Printf("Min Notes:       %d characters\n", cfg.Review.MinNotesLength)
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the database and blob store are usable",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "config check")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ValidateSetup(cmd.Context()); err != nil {
			return fmt.Errorf("blob store: %w", err)
		}
		fmt.Println("OK")
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage resume encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate an age key pair protected by a passphrase",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		enc := encryption.NewAgeEncryptor(cfg.Encryption)
		if enc.IsConfigured() {
			return fmt.Errorf("keys already exist at %s", cfg.Encryption.PrivateKeyPath)
		}

		pass, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := enc.Setup(pass); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}

		fmt.Printf("Public key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s\n", cfg.Encryption.PrivateKeyPath)
		if cfg.Encryption.Type != "age" {
			fmt.Println(`Set type = "age" under [encryption] to encrypt new resumes.`)
		}
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the application database",
}

var dbSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the migrated schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "db schema")
		if err != nil {
			return err
		}
		defer a.Close()

		schema, err := a.Store().DumpSchema(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Print(schema)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configCheckCmd)

	keysCmd.AddCommand(keysInitCmd)

	dbCmd.AddCommand(dbSchemaCmd)
}
