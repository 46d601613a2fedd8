package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/mauv0809/rivalry/internal/chat"
	"github.com/mauv0809/rivalry/internal/realtime"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <match-id>",
	Short: "Follow a match chat live",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matchID := args[0]
		messages, err := fetchMessages(matchID)
		if err != nil {
			return err
		}
		feed := realtime.NewFeed(messages)
		for i := len(messages) - 1; i >= 0; i-- {
			printMessage(messages[i])
		}

		url := "ws" + strings.TrimPrefix(host, "http") + "/matches/" + matchID + "/stream?token=" + token
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return fmt.Errorf("failed to open stream: %w", err)
		}
		defer conn.Close()
		fmt.Println("-- watching, Ctrl+C to stop --")

		for {
			var ev realtime.Event
			if err := conn.ReadJSON(&ev); err != nil {
				return fmt.Errorf("stream closed: %w", err)
			}
			switch {
			case ev.Type == realtime.EventMatchUpdated && ev.Match != nil:
				fmt.Printf("** match is now %s\n", ev.Match.Status)
			case feed.ApplyEvent(ev):
				printMessage(*ev.Message)
			}
		}
	},
}

// fetchMessages is the full read the live feed starts from.
func fetchMessages(matchID string) ([]chat.Message, error) {
	req, err := http.NewRequest(http.MethodGet, host+"/matches/"+matchID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		OK   bool `json:"ok"`
		Data struct {
			Messages []chat.Message `json:"messages"`
		} `json:"data"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode match: %w", err)
	}
	if !body.OK {
		return nil, fmt.Errorf("failed to load match: %s", body.Reason)
	}
	return body.Data.Messages, nil
}

func printMessage(m chat.Message) {
	line := m.Content
	if m.Proposal != nil {
		line = fmt.Sprintf("[%s] %s (id %s)", m.Proposal.Status, m.Content, m.ID)
	}
	fmt.Printf("%s %s: %s\n", m.CreatedAt.Format("02 Jan 15:04"), m.SenderTeamID, line)
}
