package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"palisade-hq/palisade/pkg/cli"
	"palisade-hq/palisade/pkg/config"
	"palisade-hq/palisade/pkg/keys"
)

var keysFlags struct {
	name   string
	format string
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
	Long: `Issue, list, and revoke API keys against the configured credential
store.

Keys are stored as argon2id hashes; the plaintext is printed exactly once
at issuance and cannot be recovered afterwards.

Examples:
  # Issue a key for a caller
  palisade keys issue --name "billing@example.com"

  # List all keys, including revoked ones
  palisade keys list

  # Revoke a key by id
  palisade keys revoke 42`,
}

var keysIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a new API key",
	Long: `Issue a new API key and print the plaintext credential.

This is the only time the plaintext is available. The store keeps an
argon2id hash; a lost key must be revoked and reissued.`,
	RunE: issueKey,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all keys",
	Long:  `List all keys with their metadata. Secrets are never shown.`,
	RunE:  listKeys,
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke <id>",
	Short: "Revoke a key",
	Long: `Revoke the key with the given id. Revocation is terminal: the key
stops authenticating immediately and cannot be reactivated.`,
	Args: cobra.ExactArgs(1),
	RunE: revokeKey,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysIssueCmd, keysListCmd, keysRevokeCmd)

	keysIssueCmd.Flags().StringVarP(&keysFlags.name, "name", "n", "", "key label (owner email or service name)")
	_ = keysIssueCmd.MarkFlagRequired("name")

	keysListCmd.Flags().StringVar(&keysFlags.format, "format", "text", "output format: text, json")
}

func issueKey(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	store, err := openKeyStore(config.GetConfig())
	if err != nil {
		return cli.NewCommandError("keys issue", err)
	}
	defer store.Close()

	key, plaintext, err := store.Issue(context.Background(), keysFlags.name)
	if err != nil {
		return cli.NewCommandError("keys issue", err)
	}

	fmt.Printf("Key ID: %d\n", key.ID)
	fmt.Printf("Name:   %s\n", key.Name)
	fmt.Println()
	fmt.Printf("API key: %s\n", plaintext)
	fmt.Println()
	fmt.Println("⚠️  This is the only time the key is shown. Store it securely.")

	return nil
}

func listKeys(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	store, err := openKeyStore(config.GetConfig())
	if err != nil {
		return cli.NewCommandError("keys list", err)
	}
	defer store.Close()

	list, err := store.List(context.Background())
	if err != nil {
		return cli.NewCommandError("keys list", err)
	}

	if keysFlags.format == string(cli.FormatJSON) {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, list)
	}
	return renderKeyTable(os.Stdout, list)
}

func revokeKey(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid key id %q", args[0])
	}

	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	store, err := openKeyStore(config.GetConfig())
	if err != nil {
		return cli.NewCommandError("keys revoke", err)
	}
	defer store.Close()

	if err := store.Revoke(context.Background(), id); err != nil {
		return cli.NewCommandError("keys revoke", err)
	}

	fmt.Printf("✓ Key %d revoked\n", id)
	return nil
}

// renderKeyTable writes key metadata as an aligned text table.
func renderKeyTable(w io.Writer, list []keys.Redacted) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No keys found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPREFIX\tACTIVE\tCREATED\tREVOKED")
	for _, key := range list {
		revoked := "-"
		if key.RevokedAt != nil {
			revoked = key.RevokedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%s\t%s\n",
			key.ID, key.Name, key.Prefix, key.Active,
			key.CreatedAt.Format(time.RFC3339), revoked)
	}
	return tw.Flush()
}
