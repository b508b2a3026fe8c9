package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/rankchat-server/internal/proto"
	"github.com/vovakirdan/rankchat-server/scripts/internal/wsclient"
)

// Lines starting with this prefix are sent as secret messages.
const secretPrefix = "/secret "

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "cli-user", "user name")
	hash := flag.String("hash", "", "credential")
	room := flag.String("room", "general", "room to join")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
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

	if err := wsclient.Send(ctx, conn, proto.InboundTypeJoin, proto.JoinData{Room: *room}); err != nil {
		return err
	}

	fmt.Printf("Connected to %s as %s (%s) in room %s\n", *addr, welcome.User, welcome.RankName, *room)
	fmt.Printf("Type messages and press Enter to send. Prefix with %q to send a secret. Ctrl+C to exit.\n", strings.TrimSpace(secretPrefix))

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *room)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var frame wsclient.Frame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if frame.Error != nil {
			fmt.Printf("! %s: %s\n", frame.Error.Code, frame.Error.Msg)
			continue
		}

		switch frame.Event {
		case proto.EventNameMessage:
			var evt proto.EventMessage
			if err := json.Unmarshal(frame.Data, &evt); err != nil {
				log.Printf("unmarshal message: %v", err)
				continue
			}
			marker := ""
			if evt.Secret {
				marker = " [secret]"
			}
			fmt.Printf("[%s]%s %s: %s\n", evt.Room, marker, evt.User, evt.Text)
		default:
			fmt.Printf("event=%s data=%s\n", frame.Event, string(frame.Data))
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, room string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			msg := proto.MsgData{Room: room, Text: text}
			if rest, found := strings.CutPrefix(text, secretPrefix); found {
				msg.Text = strings.TrimSpace(rest)
				msg.Secret = true
			}
			if err := wsclient.Send(ctx, conn, proto.InboundTypeMsg, msg); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
