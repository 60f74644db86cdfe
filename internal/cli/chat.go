package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/parleyhq/parley/internal/auth"
	"github.com/parleyhq/parley/internal/chat"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/pkg/logger"
)

const commandTimeout = 15 * time.Second

// ChatCommand runs the interactive chat loop. The optional argument selects
// the initial target: a room id, or @username for a private conversation.
func ChatCommand(cfg *config.Config, args []string) error {
	sess, err := auth.Load(cfg)
	if err != nil {
		return err
	}

	render := newRenderer(sess.UserID)
	client := chat.New(chat.Options{
		ServerURL:    cfg.ServerURL,
		HistoryLimit: cfg.HistoryLimit,
		Identity: chat.Identity{
			UserID:   sess.UserID,
			Username: sess.Username,
			Token:    sess.Token,
		},
		Listener: chat.Listener{
			OnStatus:   render.status,
			OnMessages: render.messages,
		},
	})
	client.Start()
	defer client.Stop()

	initial := "general"
	if len(args) > 0 {
		initial = args[0]
	}
	if err := switchTarget(client, sess, initial); err != nil {
		return err
	}

	fmt.Println("Type /help for commands, /quit to exit.")

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)

	var aiConversation string
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-sigc:
			fmt.Println()
			return nil
		case err := <-errc:
			return err
		case line := <-lines:
			quit, err := handleLine(client, sess, render, &aiConversation, line)
			if err != nil {
				logger.Errorf("%v", err)
			}
			if quit {
				return nil
			}
		}
	}
}

func handleLine(client *chat.Client, sess *auth.Session, render *renderer, aiConversation *string, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	if !strings.HasPrefix(line, "/") {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if _, err := client.SendText(ctx, line); err != nil {
			return false, err
		}
		return false, nil
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/q":
		return true, nil
	case "/help":
		printChatHelp()
		return false, nil
	case "/room":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /room <room-id>")
		}
		return false, switchTarget(client, sess, args[0])
	case "/dm":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /dm <username>")
		}
		return false, switchTarget(client, sess, "@"+strings.TrimPrefix(args[0], "@"))
	case "/retry":
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		render.reset()
		if _, err := client.Retry(ctx); err != nil {
			return false, err
		}
		return false, nil
	case "/status":
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		snap, err := client.Snapshot(ctx)
		if err != nil {
			return false, err
		}
		fmt.Printf("* %s, %s, %d messages\n", snap.Target, snap.Status, len(snap.Messages))
		if snap.HistoryErr != nil {
			fmt.Printf("* history unavailable: %v\n", snap.HistoryErr)
		}
		return false, nil
	case "/upload":
		if len(args) < 1 {
			return false, fmt.Errorf("usage: /upload <path> [caption]")
		}
		return false, uploadAndSend(client, sess, args[0], strings.Join(args[1:], " "))
	case "/ai":
		if len(args) == 0 {
			return false, fmt.Errorf("usage: /ai <message>")
		}
		reply, err := aiSend(client.API(), sess.UserID, strings.Join(args, " "), *aiConversation)
		if err != nil {
			return false, err
		}
		*aiConversation = reply.ConversationID
		fmt.Printf("ai> %s\n", reply.Response)
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %s; try /help", cmd)
	}
}

func switchTarget(client *chat.Client, sess *auth.Session, raw string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var target chat.Target
	if username, ok := strings.CutPrefix(raw, "@"); ok {
		user, err := resolveUser(ctx, client.API(), username)
		if err != nil {
			return err
		}
		target = chat.PeerTarget(sess.UserID, user.ID)
	} else {
		target = chat.RoomTarget(strings.TrimPrefix(raw, "#"))
	}

	if _, err := client.Activate(ctx, target); err != nil {
		return err
	}
	fmt.Printf("* switched to %s\n", target)
	return nil
}

func uploadAndSend(client *chat.Client, sess *auth.Session, path, caption string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	upload, err := client.API().UploadMedia(ctx, sess.UserID, path)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	logger.Infof("Uploaded %s (%d bytes)", upload.Filename, upload.Size)

	if caption == "" {
		caption = upload.Filename
	}
	if _, err := client.SendMedia(ctx, caption, upload.URL, upload.FileType); err != nil {
		return err
	}
	return nil
}

func printChatHelp() {
	fmt.Print(`Commands:
  /room <room-id>        Switch to a room
  /dm <username>         Switch to a private conversation
  /retry                 Reconnect the current conversation
  /upload <path> [text]  Upload a file and send it
  /ai <message>          Ask the AI assistant (stays out of the room)
  /status                Show connection status
  /help                  Show this help
  /quit                  Exit
Anything else is sent as a message.
`)
}

// renderer prints the conversation feed. New messages only ever append, and
// reconciliation replaces entries in place, so printing the tail past the
// last rendered index is enough. In-place delivery failures are tracked
// separately.
type renderer struct {
	selfID string

	mu        sync.Mutex
	targetKey string
	rendered  int
	warned    map[string]bool
}

func newRenderer(selfID string) *renderer {
	return &renderer{selfID: selfID, warned: make(map[string]bool)}
}

func (r *renderer) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targetKey = ""
	r.rendered = 0
	r.warned = make(map[string]bool)
}

func (r *renderer) status(status chat.Status) {
	fmt.Printf("* %s\n", status)
}

func (r *renderer) messages(target chat.Target, msgs []chat.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key := target.Key(); key != r.targetKey {
		r.targetKey = key
		r.rendered = 0
		r.warned = make(map[string]bool)
	}
	if r.rendered > len(msgs) {
		// The store shrank (an optimistic duplicate collapsed); nothing new
		// to print.
		r.rendered = len(msgs)
	}

	for _, m := range msgs[r.rendered:] {
		r.printMessage(m)
	}
	r.rendered = len(msgs)

	for _, m := range msgs {
		if m.Local && m.Delivery == chat.DeliveryFailed && !r.warned[m.ID] {
			r.warned[m.ID] = true
			fmt.Printf("! not delivered: %s (use /retry to reconnect)\n", truncate(m.Text, 40))
		}
	}
}

func (r *renderer) printMessage(m chat.Message) {
	name := m.Sender
	if m.SenderID == r.selfID {
		name = "you"
	}
	if name == "" {
		name = m.SenderID
	}
	ts := m.Timestamp.Local().Format("15:04")
	switch {
	case m.MediaURL != "":
		fmt.Printf("[%s] %s: %s [%s: %s]\n", ts, name, m.Text, m.MediaKind, m.MediaURL)
	default:
		fmt.Printf("[%s] %s: %s\n", ts, name, m.Text)
	}
}
