// pairctl drives the pairing endpoints of a running gateway from the
// terminal, rendering the pairing payload as a scannable QR code.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"
)

var (
	gatewayBase string
	gatewayURL  string
	accountID   string
	asJSON      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pairctl",
		Short: "Pair a Dailyflows account with an OpenClaw gateway",
	}
	rootCmd.PersistentFlags().StringVar(&gatewayBase, "gateway", "http://localhost:8080", "base URL of the running gateway")

	pairCmd := &cobra.Command{
		Use:   "pair",
		Short: "Issue a pairing code and print it as a QR code",
		RunE:  runPair,
	}
	pairCmd.Flags().StringVar(&gatewayURL, "gateway-url", "", "public URL the Dailyflows app should call back (defaults to --gateway)")
	pairCmd.Flags().StringVar(&accountID, "account", "", "account id to pair (default \"default\")")
	pairCmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON response instead of a QR code")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the pairing state of every account",
		RunE:  runStatus,
	}

	rootCmd.AddCommand(pairCmd, statusCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type pairResponse struct {
	OK         bool   `json:"ok"`
	Error      string `json:"error"`
	GatewayURL string `json:"gatewayUrl"`
	AccountID  string `json:"accountId"`
	PairCode   string `json:"pairCode"`
	Payload    string `json:"payload"`
	ExpiresAt  int64  `json:"expiresAt"`
}

func runPair(cmd *cobra.Command, args []string) error {
	target := gatewayURL
	if target == "" {
		target = gatewayBase
	}

	query := url.Values{}
	query.Set("format", "json")
	query.Set("gatewayUrl", target)
	if accountID != "" {
		query.Set("accountId", accountID)
	}

	body, err := get(gatewayBase + "/dailyflows/pair?" + query.Encode())
	if err != nil {
		return err
	}

	if asJSON {
		fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return nil
	}

	var resp pairResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("parse gateway response: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("gateway refused pairing: %s", resp.Error)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Scan this code in the Dailyflows app:")
	fmt.Fprintln(out)
	qrterminal.GenerateWithConfig(resp.Payload, qrterminal.Config{
		Level:     qrterminal.M,
		Writer:    out,
		BlackChar: qrterminal.BLACK,
		WhiteChar: qrterminal.WHITE,
		QuietZone: 1,
	})
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Gateway:   %s\n", resp.GatewayURL)
	fmt.Fprintf(out, "Account:   %s\n", resp.AccountID)
	fmt.Fprintf(out, "Pair code: %s\n", resp.PairCode)
	fmt.Fprintf(out, "Expires:   %s\n", time.UnixMilli(resp.ExpiresAt).Format(time.RFC3339))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	body, err := get(gatewayBase + "/dailyflows/status")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(body))
	return nil
}

func get(target string) ([]byte, error) {
	client := &http.Client{Timeout: 15 * time.Second}
	res, err := client.Get(target)
	if err != nil {
		return nil, fmt.Errorf("reach gateway: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned %s: %s", res.Status, string(body))
	}
	return body, nil
}
