package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"partyrooms/internal/logger"
	"partyrooms/internal/syncclient"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "адрес сервера комнат")
	room := flag.String("room", "", "id комнаты")
	token := flag.String("token", os.Getenv("ROOM_TOKEN"), "JWT игрока (или ROOM_TOKEN)")
	interval := flag.Duration("interval", syncclient.DefaultInterval, "период опроса, 2.5s-5s")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"), false)
	if *room == "" || *token == "" {
		fmt.Fprintln(os.Stderr, "usage: roomwatch -room <id> -token <jwt> [-server url] [-interval 3s]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	screen := newTerminal(os.Stdout)
	client := syncclient.New(syncclient.NewHTTPTransport(*server, *token), screen, *room, syncclient.Options{Interval: *interval})

	go readCommands(ctx, stop, client, screen)

	if err := client.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("roomwatch stopped", "error", err)
	}
}

// команды со stdin, по одной на строку
func readCommands(ctx context.Context, stop context.CancelFunc, client *syncclient.Client, screen *terminal) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd, err := syncclient.ParseCommand(scanner.Text())
		if err != nil {
			screen.Toast(err.Error())
			continue
		}
		switch {
		case cmd.Quit:
			stop()
			return
		case cmd.Chat != "":
			client.Chat(ctx, cmd.Chat)
		case cmd.Action != nil:
			client.Submit(ctx, *cmd.Action)
		}
	}
	stop()
}
