package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/rankchat-server/internal/proto"
	"github.com/vovakirdan/rankchat-server/scripts/internal/wsclient"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "tester", "user name to salute with")
	hash := flag.String("hash", "", "credential to salute with")
	room := flag.String("room", "general", "room name")
	text := flag.String("text", "hello from smoke test", "message text to send")
	secret := flag.Bool("secret", false, "send the message as secret")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	token, err := wsclient.Salute(ctx, wsclient.BaseURL(*addr), *user, *hash)
	if err != nil {
		return err
	}

	conn, welcome, err := wsclient.Dial(ctx, *addr, token)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")
	fmt.Printf("Welcome: user=%s rank=%d (%s)\n", welcome.User, welcome.Rank, welcome.RankName)

	if err := wsclient.Send(ctx, conn, proto.InboundTypeJoin, proto.JoinData{Room: *room}); err != nil {
		return err
	}
	if err := wsclient.Send(ctx, conn, proto.InboundTypeMsg, proto.MsgData{Room: *room, Text: *text, Secret: *secret}); err != nil {
		return err
	}

	for {
		var frame wsclient.Frame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if frame.Error != nil {
			return fmt.Errorf("server error: %s: %s", frame.Error.Code, frame.Error.Msg)
		}
		if frame.Event != proto.EventNameMessage {
			continue
		}

		var evt proto.EventMessage
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			return fmt.Errorf("unmarshal message: %w", err)
		}
		fmt.Printf("EventMessage: id=%d room=%s user=%s secret=%t text=%q ts=%d\n", evt.ID, evt.Room, evt.User, evt.Secret, evt.Text, evt.TS)
		if evt.User == welcome.User && evt.Text == *text {
			return nil
		}
	}
}
