package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/parleyhq/parley/internal/api"
	"github.com/parleyhq/parley/internal/auth"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/wire"
	"github.com/parleyhq/parley/pkg/logger"
)

// ContactsCommand dispatches the contacts subcommands: list (default),
// search, add, remove, and conversations.
func ContactsCommand(cfg *config.Config, args []string) error {
	sess, err := auth.Load(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client := api.New(cfg.ServerURL)
	defer client.Close()
	client.SetToken(sess.Token)

	sub := "list"
	if len(args) > 0 {
		sub = args[0]
		args = args[1:]
	}

	switch sub {
	case "list":
		return listContacts(ctx, client, sess.UserID)
	case "search":
		if len(args) != 1 {
			return fmt.Errorf("usage: parley contacts search <query>")
		}
		return searchUsers(ctx, client, args[0])
	case "add":
		if len(args) != 1 {
			return fmt.Errorf("usage: parley contacts add <username>")
		}
		return addContact(ctx, client, sess.UserID, args[0])
	case "remove":
		if len(args) != 1 {
			return fmt.Errorf("usage: parley contacts remove <username>")
		}
		return removeContact(ctx, client, sess.UserID, args[0])
	case "conversations":
		return listConversations(ctx, client, sess.UserID)
	default:
		return fmt.Errorf("unknown contacts subcommand %q", sub)
	}
}

func listContacts(ctx context.Context, client *api.Client, userID string) error {
	contacts, err := client.Contacts(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}
	if len(contacts) == 0 {
		fmt.Println("No contacts yet. Use `parley contacts search <query>` to find users.")
		return nil
	}
	for _, c := range contacts {
		presence := " "
		if c.IsOnline {
			presence = "*"
		}
		fmt.Printf("%s @%-20s %s\n", presence, c.ContactUsername, c.ContactEmail)
	}
	return nil
}

func searchUsers(ctx context.Context, client *api.Client, query string) error {
	users, err := client.SearchUsers(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(users) == 0 {
		fmt.Printf("No users matching %q.\n", query)
		return nil
	}
	for _, u := range users {
		fmt.Printf("@%-20s %s\n", u.Username, u.Email)
	}
	return nil
}

func addContact(ctx context.Context, client *api.Client, userID, username string) error {
	target, err := resolveUser(ctx, client, username)
	if err != nil {
		return err
	}
	if err := client.AddContact(ctx, userID, target.ID); err != nil {
		return fmt.Errorf("failed to add contact: %w", err)
	}
	logger.Infof("Added @%s to contacts", target.Username)
	return nil
}

func removeContact(ctx context.Context, client *api.Client, userID, username string) error {
	contacts, err := client.Contacts(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}
	for _, c := range contacts {
		if strings.EqualFold(c.ContactUsername, username) {
			if err := client.RemoveContact(ctx, c.ID); err != nil {
				return fmt.Errorf("failed to remove contact: %w", err)
			}
			logger.Infof("Removed @%s from contacts", c.ContactUsername)
			return nil
		}
	}
	return fmt.Errorf("no contact named %q", username)
}

func listConversations(ctx context.Context, client *api.Client, userID string) error {
	convs, err := client.Conversations(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(convs) == 0 {
		fmt.Println("No private conversations yet.")
		return nil
	}
	for _, c := range convs {
		unread := ""
		if c.UnreadCount > 0 {
			unread = fmt.Sprintf(" (%d unread)", c.UnreadCount)
		}
		fmt.Printf("@%-20s %s%s\n", c.ContactUsername, truncate(c.LastMessage, 60), unread)
	}
	return nil
}

// resolveUser finds the user matching username, preferring an exact match
// over substring hits.
func resolveUser(ctx context.Context, client *api.Client, username string) (*wire.UserSummary, error) {
	users, err := client.SearchUsers(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	for i := range users {
		if strings.EqualFold(users[i].Username, username) {
			return &users[i], nil
		}
	}
	if len(users) == 1 {
		return &users[0], nil
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("no user named %q", username)
	}
	return nil, fmt.Errorf("ambiguous username %q; %d users match", username, len(users))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
