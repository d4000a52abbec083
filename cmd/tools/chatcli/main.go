// chatcli is a console client for manual testing: it drives the same
// conversation store and orchestrator the server uses, pointed at a running
// backend.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/gramacare/backend/internal/backend"
	"github.com/gramacare/backend/internal/service/conversation"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] no .env file, using system environment: %v", err)
	}

	server := flag.String("server", backend.DefaultBaseURL, "backend base URL")
	lang := flag.String("lang", "auto", "language code (en, hi, te, kn) or auto")
	flag.Parse()

	client := backend.NewClient(backend.WithBaseURL(*server))
	store := conversation.NewStore()
	orchestrator := conversation.NewOrchestrator(store, client)

	ctx := context.Background()

	fmt.Printf("connected to %s, language=%s\n", *server, *lang)
	fmt.Println("type a question and press enter; /new starts a fresh chat; /quit exits")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/new":
			created := store.CreateChat(ctx)
			fmt.Printf("started chat %s\n", created.ID)
			continue
		}

		receipt, err := orchestrator.SendMessage(ctx, line, *lang)
		if err != nil {
			log.Printf("send failed: %v", err)
			continue
		}

		<-receipt.Done

		messages, err := store.Transcript(ctx, receipt.ChatID)
		if err != nil {
			log.Printf("transcript failed: %v", err)
			continue
		}
		for _, msg := range messages {
			if msg.ID == receipt.PlaceholderID {
				fmt.Println(msg.Text)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("stdin error: %v", err)
	}
}
