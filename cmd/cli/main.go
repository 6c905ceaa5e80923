package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL  string
	identity string
	timeout  time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gobank-cli",
		Short: "GoBank CLI tool",
		Long:  `A command line interface for interacting with the GoBank API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the GoBank API")
	rootCmd.PersistentFlags().StringVar(&identity, "identity", "", "Identity to act as")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Account commands
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var (
		displayName string
		secret      string
		seedBalance string
	)

	provisionCmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision an account for the identity",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/api/v1/accounts", map[string]any{
				"display_name": displayName,
				"secret":       secret,
				"seed_balance": seedBalance,
			})
		},
	}
	provisionCmd.Flags().StringVar(&displayName, "name", "", "Display name")
	provisionCmd.Flags().StringVar(&secret, "secret", "", "Transaction secret")
	provisionCmd.Flags().StringVar(&seedBalance, "seed", "0", "Seed balance in minor units")

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show the identity's account",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/api/v1/accounts/me", nil)
		},
	}

	var newSecret string

	rotateCmd := &cobra.Command{
		Use:   "rotate-secret",
		Short: "Rotate the transaction secret",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/api/v1/accounts/me/secret", map[string]any{
				"new_secret": newSecret,
			})
		},
	}
	rotateCmd.Flags().StringVar(&newSecret, "secret", "", "New transaction secret")

	lookupCmd := &cobra.Command{
		Use:   "lookup [account-number]",
		Short: "Resolve an account number to its display name",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/api/v1/accounts/number/"+args[0], nil)
		},
	}

	ensureCmd := &cobra.Command{
		Use:   "ensure",
		Short: "Provision the identity's account if it does not exist yet",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/api/v1/accounts/ensure", map[string]any{
				"display_name": displayName,
				"secret":       secret,
			})
		},
	}
	ensureCmd.Flags().StringVar(&displayName, "name", "", "Display name")
	ensureCmd.Flags().StringVar(&secret, "secret", "", "Transaction secret")

	var (
		listLimit  int
		listOffset int
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts (operator tooling)",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, fmt.Sprintf("/api/v1/accounts?limit=%d&offset=%d", listLimit, listOffset), nil)
		},
	}
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Page size")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Page offset")

	accountCmd.AddCommand(provisionCmd, ensureCmd, getCmd, rotateCmd, lookupCmd, listCmd)
	rootCmd.AddCommand(accountCmd)

	// Transfer command
	var (
		toAccountNumber string
		toName          string
		amount          string
		description     string
	)

	transferCmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer funds to an account number",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/api/v1/transfers", map[string]any{
				"to_account_number": toAccountNumber,
				"to_name":           toName,
				"amount":            amount,
				"secret":            secret,
				"description":       description,
			})
		},
	}
	transferCmd.Flags().StringVar(&toAccountNumber, "to", "", "Destination account number")
	transferCmd.Flags().StringVar(&toName, "to-name", "", "Destination display name")
	transferCmd.Flags().StringVar(&amount, "amount", "", "Amount in minor units")
	transferCmd.Flags().StringVar(&secret, "secret", "", "Transaction secret")
	transferCmd.Flags().StringVar(&description, "description", "", "Transfer description")
	rootCmd.AddCommand(transferCmd)

	// Ledger commands
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	var (
		limit  int
		before string
	)

	entriesCmd := &cobra.Command{
		Use:   "entries",
		Short: "List ledger entries, newest first",
		Run: func(cmd *cobra.Command, args []string) {
			path := fmt.Sprintf("/api/v1/accounts/me/entries?limit=%d", limit)
			if before != "" {
				path += "&before=" + before
			}
			doRequest(http.MethodGet, path, nil)
		},
	}
	entriesCmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	entriesCmd.Flags().StringVar(&before, "before", "", "Page before this entry ID")

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay the ledger and check it against the stored balance",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/api/v1/accounts/me/verify", nil)
		},
	}

	ledgerCmd.AddCommand(entriesCmd, verifyCmd)
	rootCmd.AddCommand(ledgerCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func doRequest(method, path string, body map[string]any) {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			fmt.Printf("Failed to encode request: %v\n", err)
			os.Exit(1)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		fmt.Printf("Failed to build request: %v\n", err)
		os.Exit(1)
	}

	req.Header.Set("Content-Type", "application/json")
	if identity != "" {
		req.Header.Set("X-Identity", identity)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, respBody, "", "  "); err != nil {
		pretty.Write(respBody)
	}

	if resp.StatusCode >= 400 {
		fmt.Printf("Request FAILED (Status: %d)\n%s\n", resp.StatusCode, pretty.String())
		os.Exit(1)
	}

	fmt.Println(pretty.String())
}
