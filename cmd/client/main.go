package main

import (
	"bufio"
	"chat-relay/domain"
	"chat-relay/infrastructure/ws"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:8080"`
	UserID        int64  `env:"CHAT_USER_ID,required=true"`
	RecipientID   int64  `env:"CHAT_RECIPIENT_ID,required=true"`
	Colours       bool   `env:"CHAT_COLOURS,default=true"`
	LogLevel      string `env:"LOG_LEVEL,default=WARN"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run joins the relay as the configured user, prints everything it receives
// and sends each stdin line to the configured recipient.
func run() (int, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	base := "http://" + config.ServerAddress
	var self ws.UserPayload
	if err := getJSON(ctx, fmt.Sprintf("%s/api/users/%d", base, config.UserID), &self); err != nil {
		return exitConfig, fmt.Errorf("unknown user %d: %w", config.UserID, err)
	}
	settings := Settings{GroupingWindowSeconds: 20, TimestampDividerMinutes: 10}
	if err := getJSON(ctx, base+"/api/settings", &settings); err != nil {
		log.Warn("Using default presentation settings", "error", err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, "ws://"+config.ServerAddress+"/ws", nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	p := newPrinter(os.Stdout, domain.UserID(self.ID), domain.UserID(config.RecipientID), settings, config.Colours)
	p.names[domain.UserID(self.ID)] = self.Name

	if err := conn.WriteJSON(envelope{Event: ws.EventJoin, Data: self}); err != nil {
		return exitRuntime, fmt.Errorf("join failed: %w", err)
	}
	fmt.Printf(">>> Connected to %s as %s, talking to #%d (Ctrl+C to quit)\n",
		config.ServerAddress, self.Name, config.RecipientID)

	// gorilla supports one concurrent reader and one concurrent writer:
	// the receive loop reads, this goroutine writes.
	go sendLines(ctx, log, conn, self.ID, config.RecipientID)

	errChan := make(chan error, 1)
	go func() { errChan <- receive(log, conn, p) }()

	select {
	case <-ctx.Done():
		return exitOK, nil
	case err := <-errChan:
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return exitOK, nil
		}
		return exitRuntime, fmt.Errorf("connection lost: %w", err)
	}
}

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func receive(log *slog.Logger, conn *websocket.Conn, p *printer) error {
	for {
		var env ws.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return err
		}
		if err := render(p, env); err != nil {
			log.Warn("Unreadable frame", "event", env.Event, "error", err)
		}
	}
}

func render(p *printer, env ws.Envelope) error {
	switch env.Event {
	case ws.EventUsersUpdated:
		var users []ws.UserPayload
		if err := json.Unmarshal(env.Data, &users); err != nil {
			return err
		}
		p.Presence(users)
	case ws.EventHistory:
		var payloads []ws.MessagePayload
		if err := json.Unmarshal(env.Data, &payloads); err != nil {
			return err
		}
		messages := make([]domain.Message, 0, len(payloads))
		for _, payload := range payloads {
			m, err := ws.ToMessage(payload)
			if err != nil {
				return err
			}
			messages = append(messages, m)
		}
		p.History(messages)
	case ws.EventReceived:
		var payload ws.MessagePayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return err
		}
		m, err := ws.ToMessage(payload)
		if err != nil {
			return err
		}
		p.Message(m)
	case ws.EventRejected:
		var payload ws.RejectedPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return err
		}
		p.Rejected(payload)
	default:
		return fmt.Errorf("unexpected event %q", env.Event)
	}
	return nil
}

func sendLines(ctx context.Context, log *slog.Logger, conn *websocket.Conn, senderID, recipientID int64) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		frame := envelope{Event: ws.EventSend, Data: ws.SendPayload{
			SenderID:    senderID,
			RecipientID: recipientID,
			Content:     line,
		}}
		if err := conn.WriteJSON(frame); err != nil {
			log.Error("Send failed", "error", err)
			return
		}
	}
}

func getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
