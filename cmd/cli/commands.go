package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mauv0809/rivalry/internal/chat"
	"github.com/mauv0809/rivalry/internal/session"
	"github.com/spf13/cobra"
)

var (
	secret   string
	tokenTTL time.Duration

	offer    chat.Offer
	friendly bool
	teamID   string
	zone     string
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(proposeCmd)
	rootCmd.AddCommand(respondCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(challengeCmd)
	rootCmd.AddCommand(watchCmd)

	tokenCmd.Flags().StringVar(&secret, "secret", "", "JWT_SECRET of the server")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	tokenCmd.MarkFlagRequired("secret")

	proposeCmd.Flags().StringVar(&offer.Date, "date", "", "Match date, YYYY-MM-DD")
	proposeCmd.Flags().StringVar(&offer.Time, "time", "", "Kick-off time, HH:MM")
	proposeCmd.Flags().StringVar(&offer.Venue, "venue", "", "Venue")
	proposeCmd.Flags().StringVar(&offer.Modality, "modality", "", "Modality, e.g. F7")
	proposeCmd.Flags().IntVar(&offer.DurationMinutes, "duration", 0, "Duration in minutes")
	proposeCmd.Flags().StringVar(&offer.Timezone, "timezone", "", "IANA zone the date and time are in")
	proposeCmd.Flags().BoolVar(&friendly, "friendly", false, "Propose a friendly (unrated) match")
	proposeCmd.Flags().StringVar(&teamID, "team", "", "Team to act for when managing both sides")
	proposeCmd.MarkFlagRequired("date")
	proposeCmd.MarkFlagRequired("time")

	respondCmd.Flags().StringVar(&zone, "timezone", "", "IANA zone used when the offer carries none")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics", nil)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a bearer token locally with the server secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signed, err := session.NewIssuer(secret, tokenTTL).Issue(args[0])
		if err != nil {
			return err
		}
		fmt.Println(signed)
		return nil
	},
}

var matchCmd = &cobra.Command{
	Use:   "match <match-id>",
	Short: "Show everything about a match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/matches/"+args[0], nil)
	},
}

var proposeCmd = &cobra.Command{
	Use:   "propose <match-id>",
	Short: "Propose a date, time and venue for a match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("friendly") {
			offer.IsFriendly = &friendly
		}
		return performRequest(http.MethodPost, "/matches/"+args[0]+"/proposals", map[string]any{
			"team_id": teamID,
			"offer":   offer,
		})
	},
}

var respondCmd = &cobra.Command{
	Use:       "respond <message-id> <ACCEPTED|REJECTED|CANCELLED>",
	Short:     "Answer or withdraw a proposal",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(chat.ProposalAccepted), string(chat.ProposalRejected), string(chat.ProposalCancelled)},
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/messages/"+args[0]+"/respond", map[string]string{
			"status":   args[1],
			"timezone": zone,
		})
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <match-id>",
	Short: "Cancel a match at least 24 hours before kick-off",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/matches/"+args[0]+"/cancel", nil)
	},
}

var challengeCmd = &cobra.Command{
	Use:   "challenge <challenger-team-id> <target-team-id>",
	Short: "Challenge another team",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/challenges", map[string]string{
			"challenger_id": args[0],
			"target_id":     args[1],
		})
	},
}

func performRequest(method, endpoint string, payload any) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(respBody))

	return nil
}
