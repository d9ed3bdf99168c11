package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Olprog59/go-noticegen/internal/service"
	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/bcrypt"
)

func cmdHashPassword(in io.Reader, out io.Writer) *cli.Command {
	var (
		password string
		cost     int
	)

	return &cli.Command{
		Name:  "hash-password",
		Usage: "Hash an editor password for security.editor_password_hash",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "password",
				Usage:       "Password to hash (default: first line of stdin)",
				Sources:     cli.EnvVars("NOTICEGEN_EDITOR_PASSWORD"),
				Destination: &password,
			},
			&cli.IntFlag{
				Name:        "cost",
				Usage:       "bcrypt cost",
				Value:       bcrypt.DefaultCost,
				Destination: &cost,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if password == "" {
				line, err := readLine(in)
				if err != nil {
					return err
				}
				password = line
			}

			hash, err := service.HashPassword(password, cost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			_, err = fmt.Fprintln(out, hash)
			return err
		},
	}
}

func readLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", errors.New("no password given on stdin")
	}
	return strings.TrimRight(scanner.Text(), "\r"), nil
}
