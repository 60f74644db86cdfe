package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/parleyhq/parley/internal/api"
	"github.com/parleyhq/parley/internal/auth"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/wire"
	"github.com/parleyhq/parley/pkg/logger"
)

// aiRequestTimeout is generous: assistant replies are slow.
const aiRequestTimeout = 2 * time.Minute

// AICommand dispatches the AI assistant subcommands: chat (default, an
// interactive REPL), list, history, and delete.
func AICommand(cfg *config.Config, args []string) error {
	sess, err := auth.Load(cfg)
	if err != nil {
		return err
	}

	client := api.New(cfg.ServerURL)
	defer client.Close()
	client.SetToken(sess.Token)

	sub := "chat"
	if len(args) > 0 {
		sub = args[0]
		args = args[1:]
	}

	switch sub {
	case "chat":
		conversationID := ""
		if len(args) > 0 {
			conversationID = args[0]
		}
		return aiChatLoop(cfg, client, sess.UserID, conversationID)
	case "list":
		return aiListConversations(client, sess.UserID)
	case "history":
		if len(args) != 1 {
			return fmt.Errorf("usage: parley ai history <conversation-id>")
		}
		return aiHistory(client, args[0])
	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("usage: parley ai delete <conversation-id>")
		}
		return aiDelete(client, args[0], sess.UserID)
	default:
		return fmt.Errorf("unknown ai subcommand %q", sub)
	}
}

func aiChatLoop(cfg *config.Config, client *api.Client, userID, conversationID string) error {
	if conversationID != "" {
		if err := aiHistory(client, conversationID); err != nil {
			return err
		}
	}
	fmt.Println("Chatting with the assistant. Type /quit to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/q" {
			return nil
		}

		reply, err := aiSend(client, userID, line, conversationID)
		if err != nil {
			logger.Errorf("assistant request failed: %v", err)
			continue
		}
		conversationID = reply.ConversationID
		fmt.Printf("ai> %s\n", reply.Response)
	}
}

func aiSend(client *api.Client, userID, message, conversationID string) (*wire.AIChatResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), aiRequestTimeout)
	defer cancel()
	return client.AIChat(ctx, userID, message, conversationID)
}

func aiListConversations(client *api.Client, userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	convs, err := client.AIConversations(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(convs) == 0 {
		fmt.Println("No assistant conversations yet.")
		return nil
	}
	for _, c := range convs {
		fmt.Printf("%s  %s  (updated %s)\n", c.ID, truncate(c.Title, 50), c.UpdatedAt)
	}
	return nil
}

func aiHistory(client *api.Client, conversationID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	msgs, err := client.AIConversationMessages(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}
	for _, m := range msgs {
		who := "ai"
		if m.Role == "user" {
			who = "you"
		}
		fmt.Printf("%s> %s\n", who, m.Content)
	}
	return nil
}

func aiDelete(client *api.Client, conversationID, userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := client.DeleteAIConversation(ctx, conversationID, userID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	logger.Infof("Deleted conversation %s", conversationID)
	return nil
}
