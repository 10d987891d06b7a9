package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/agentvault/agentvault/internal/agents"
)

// vaultctl is a small operator CLI talking to a running API instance.
// Policy changes go through /admin with the bearer key; everything else
// hits the public surface.

type clientOptions struct {
	API      string
	AdminKey string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &clientOptions{}

	cmd := &cobra.Command{
		Use:           "vaultctl",
		Short:         "Operator CLI for the AgentVault API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.API, "api", "http://localhost:8080", "base URL of the API server")
	cmd.PersistentFlags().StringVar(&opts.AdminKey, "admin-key", os.Getenv("ADMIN_KEY"), "admin bearer key (or ADMIN_KEY env)")

	cmd.AddCommand(newStatsCommand(opts))
	cmd.AddCommand(newSetFeeCommand(opts))
	cmd.AddCommand(newSetTreasuryCommand(opts))
	cmd.AddCommand(newSeedAgentsCommand(opts))

	return cmd
}

func newStatsCommand(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print platform statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.do(cmd.OutOrStdout(), http.MethodGet, "/api/v1/stats", nil, false)
		},
	}
}

func newSetFeeCommand(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-fee <bps>",
		Short: "Update the platform fee in basis points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bps, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid bps %q: %w", args[0], err)
			}
			return opts.do(cmd.OutOrStdout(), http.MethodPut, "/api/v1/admin/fee",
				map[string]any{"bps": bps}, true)
		},
	}
}

func newSetTreasuryCommand(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-treasury <address>",
		Short: "Update the treasury address receiving platform fees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.do(cmd.OutOrStdout(), http.MethodPut, "/api/v1/admin/treasury",
				map[string]any{"address": args[0]}, true)
		},
	}
}

func newSeedAgentsCommand(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-agents",
		Short: "Register the sample agent catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, input := range agents.SampleAgents {
				err := opts.do(cmd.OutOrStdout(), http.MethodPost, "/api/v1/agents", map[string]any{
					"name":        input.Name,
					"wallet":      input.Wallet,
					"price":       input.Price,
					"description": input.Description,
					"image_url":   input.ImageURL,
				}, false)
				if err != nil {
					return fmt.Errorf("seed %s: %w", input.Name, err)
				}
			}
			return nil
		},
	}
}

// do sends one request and streams the response body to out. Unsafe
// methods carry a fresh idempotency key.
func (o *clientOptions) do(out io.Writer, method, path string, body any, admin bool) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, o.API+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}
	if admin {
		if o.AdminKey == "" {
			return fmt.Errorf("admin key required (use --admin-key or ADMIN_KEY)")
		}
		req.Header.Set("Authorization", "Bearer "+o.AdminKey)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, bytes.TrimSpace(data))
	}
	if len(bytes.TrimSpace(data)) > 0 {
		fmt.Fprintln(out, string(bytes.TrimSpace(data)))
	}
	return nil
}
