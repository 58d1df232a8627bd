package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var (
		jsonOutput   bool
		useWebSocket bool
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream live battle events",
		Long: `Connect to your battle event stream and print events as they arrive.

Events:
  - connected: Stream established
  - battle_started: A fighter was selected or a rematch began
  - player_attack: Your move resolved
  - ai_attack: The opponent's delayed turn resolved
  - round_started: The next round began
  - match_complete: The match was decided and recorded
  - returned_to_menu: The battle was abandoned

Each event carries the full battle state. Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if useWebSocket {
				return streamWebSocket(ctx, jsonOutput)
			}
			return streamSSE(ctx, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().BoolVar(&useWebSocket, "ws", false, "Use WebSocket instead of SSE")

	return cmd
}

// StreamEvent represents one received battle event
type StreamEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

func streamSSE(ctx context.Context, jsonOutput bool) error {
	body, err := client.Stream(ctx, "/api/v1/battle/events")
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	if !jsonOutput {
		fmt.Println("Connected to battle events (SSE)")
	}

	err = readSSE(body, func(event, data string) {
		printEvent(event, data, jsonOutput)
	})
	return finishStream(ctx, err, jsonOutput)
}

// readSSE parses an event stream, calling emit once per complete event
func readSSE(r io.Reader, emit func(event, data string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			if currentEvent != "" {
				emit(currentEvent, strings.Join(dataLines, "\n"))
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	return scanner.Err()
}

func streamWebSocket(ctx context.Context, jsonOutput bool) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, client.WebSocketURL("/api/v1/battle/ws"), client.AuthHeader())
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connection failed: HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	if !jsonOutput {
		fmt.Println("Connected to battle events (WebSocket)")
	}

	for {
		var msg struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = nil
			}
			return finishStream(ctx, err, jsonOutput)
		}
		printEvent(msg.Event, string(msg.Data), jsonOutput)
	}
}

func finishStream(ctx context.Context, err error, jsonOutput bool) error {
	// Cancellation is the normal way out
	if err != nil && ctx.Err() == nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("stream error: %w", err)
	}
	if !jsonOutput {
		fmt.Println("Disconnected")
	}
	return nil
}

func printEvent(event, data string, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		jsonData, _ := json.Marshal(StreamEvent{Time: now, Event: event, Data: data})
		fmt.Println(string(jsonData))
		return
	}

	timestamp := now.Format("2006-01-02 15:04:05")

	var payload struct {
		State BattleState `json:"state"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err == nil && payload.State.Phase != "" {
		s := payload.State
		summary := fmt.Sprintf("round %d, you %d hp, opponent %d hp", s.CurrentRound, s.PlayerHealth, s.OpponentHealth)
		if s.LastAction != "" {
			summary += ": " + s.LastAction
		}
		fmt.Printf("[%s] %s: %s\n", timestamp, event, summary)
		return
	}

	displayData := strings.ReplaceAll(data, "\n", " ")
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	fmt.Printf("[%s] %s: %s\n", timestamp, event, displayData)
}
