// Package cli implements the parley subcommands.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/parleyhq/parley/internal/api"
	"github.com/parleyhq/parley/internal/auth"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/pkg/logger"
)

const authTimeout = 30 * time.Second

// AuthLoginCommand prompts for credentials and caches the resulting session.
func AuthLoginCommand(cfg *config.Config) error {
	email, err := promptLine("Email: ")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	client := api.New(cfg.ServerURL)
	defer client.Close()

	tok, err := client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := auth.Save(cfg, tok); err != nil {
		return err
	}

	logger.Infof("Logged in as %s", tok.Username)
	logger.Infof("Credentials saved to: %s", cfg.ParleyHome)
	return nil
}

// AuthRegisterCommand creates an account and caches the resulting session.
func AuthRegisterCommand(cfg *config.Config) error {
	username, err := promptLine("Username: ")
	if err != nil {
		return err
	}
	email, err := promptLine("Email: ")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	client := api.New(cfg.ServerURL)
	defer client.Close()

	tok, err := client.Register(ctx, username, email, password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	if err := auth.Save(cfg, tok); err != nil {
		return err
	}

	logger.Infof("Registered and logged in as %s", tok.Username)
	return nil
}

// AuthLogoutCommand removes the cached credentials.
func AuthLogoutCommand(cfg *config.Config) error {
	if err := auth.Clear(cfg); err != nil {
		return err
	}
	logger.Infof("Logged out")
	return nil
}

// AuthStatusCommand prints the cached identity and token expiry, plus a QR
// code that opens the web client.
func AuthStatusCommand(cfg *config.Config) error {
	sess, err := auth.Load(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as: %s (%s)\n", sess.Username, sess.UserID)
	fmt.Printf("Server:       %s\n", cfg.ServerURL)
	if exp, ok := auth.ExpiresAt(sess.Token); ok {
		fmt.Printf("Token expiry: %s\n", exp.Local().Format(time.RFC1123))
	}

	fmt.Println("\nScan to open the web client:")
	auth.PrintQR(cfg.WebURL)
	return nil
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("input must not be empty")
	}
	return line, nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimSpace(string(raw))
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	return password, nil
}
