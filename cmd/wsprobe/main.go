package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"hanyang/internal/auth"
	"hanyang/pkg/logger"
	"hanyang/pkg/protocol"
)

// wsprobe attaches to one game room on a running server and prints the
// event stream. Handy for watching a live game from a terminal, or for
// firing a single action into it.
var (
	addr     = flag.String("addr", "localhost:8080", "server address")
	gameID   = flag.String("game", "", "game id to attach to (required)")
	token    = flag.String("token", "", "access token; minted locally when empty")
	userID   = flag.Int64("user", 1, "user id for a locally minted token")
	username = flag.String("username", "probe", "username for a locally minted token")
	secret   = flag.String("secret", "", "JWT secret for minting (defaults to HANYANG_JWT_SECRET)")
	action   = flag.String("action", "", "one action kind to submit after connecting")
	payload  = flag.String("payload", "{}", "JSON payload for -action")
	logLevel = flag.String("log-level", "info", "log level: debug, info, warn, error")
)

func main() {
	flag.Parse()
	godotenv.Load()
	logger.InitLoggers(logger.ParseLevel(*logLevel), false)

	log := logger.NetLogger
	if *gameID == "" {
		log.Fatal("missing -game: which game should I attach to?")
	}

	accessToken := *token
	if accessToken == "" {
		jwtSecret := *secret
		if jwtSecret == "" {
			jwtSecret = os.Getenv("HANYANG_JWT_SECRET")
		}
		if jwtSecret == "" {
			log.Fatal("no -token and no secret to mint one: set -secret or HANYANG_JWT_SECRET")
		}
		minted, err := auth.NewVerifier(jwtSecret).IssueToken(*userID, *username, 24*time.Hour)
		if err != nil {
			log.Fatal("Failed to mint token: %v", err)
		}
		accessToken = minted
	}

	target := url.URL{
		Scheme:   "ws",
		Host:     *addr,
		Path:     "/ws/games/" + *gameID,
		RawQuery: "token=" + url.QueryEscape(accessToken),
	}
	log.Info("Connecting to %s", target.String())

	conn, resp, err := websocket.DefaultDialer.Dial(target.String(), nil)
	if err != nil {
		log.Fatal("Failed to connect: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()
	log.Info("Connected as %s (user %d)", *username, *userID)

	done := make(chan struct{})
	go readLoop(conn, done)

	if *action != "" {
		if err := sendAction(conn, *action, *payload); err != nil {
			log.Error("Failed to send %s: %v", *action, err)
		} else {
			log.Info("Submitted %s", *action)
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-done:
		log.Info("Server closed the connection")
	case <-interrupt:
		log.Info("Interrupted, closing")
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
			return
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

// readLoop prints every frame until the connection drops.
func readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	log := logger.NetLogger

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if closeErr, ok := err.(*websocket.CloseError); ok {
				log.Warn("Connection closed: %d %s", closeErr.Code, closeErr.Text)
			}
			return
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn("Undecodable frame: %s", truncate(string(data), 200))
			continue
		}
		log.Info("%-22s %s", msg.Type, truncate(compact(msg.Data), 300))
	}
}

func sendAction(conn *websocket.Conn, kind, rawPayload string) error {
	if !json.Valid([]byte(rawPayload)) {
		return fmt.Errorf("payload is not valid JSON: %s", rawPayload)
	}
	frame := map[string]interface{}{
		"type": "action",
		"data": protocol.ActionRequest{
			ActionKind: kind,
			Payload:    json.RawMessage(rawPayload),
		},
	}
	return conn.WriteJSON(frame)
}

func compact(data interface{}) string {
	if data == nil {
		return ""
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "<unprintable>"
	}
	return string(raw)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
