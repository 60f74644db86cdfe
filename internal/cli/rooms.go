package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/parleyhq/parley/internal/api"
	"github.com/parleyhq/parley/internal/auth"
	"github.com/parleyhq/parley/internal/config"
)

// RoomsCommand lists the rooms available on the server.
func RoomsCommand(cfg *config.Config) error {
	sess, err := auth.Load(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client := api.New(cfg.ServerURL)
	defer client.Close()
	client.SetToken(sess.Token)

	rooms, err := client.Rooms(ctx)
	if err != nil {
		return fmt.Errorf("failed to list rooms: %w", err)
	}
	if len(rooms) == 0 {
		fmt.Println("No rooms available.")
		return nil
	}

	for _, room := range rooms {
		name := room.Name
		if name == "" {
			name = room.ID
		}
		if room.Description != "" {
			fmt.Printf("#%-20s %s\n", name, room.Description)
		} else {
			fmt.Printf("#%s\n", name)
		}
	}
	return nil
}
