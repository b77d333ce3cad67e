package main

import (
	"fmt"
	"log"
	"os"

	"github.com/bcspragu/Set/client"
	"github.com/bcspragu/Set/io"
	"github.com/namsral/flag"
)

func main() {
	var (
		serverScheme = flag.String("scheme", "http", "The scheme of the server to connect to to play the game.")
		serverAddr   = flag.String("addr", "localhost:8080", "The address of the server to connect to to play the game.")
		name         = flag.String("name", "", "The name to play under")
		slots        = flag.Int("slots", 0, "Number of places on the table for cards, zero for the server's default")
	)
	flag.Parse()

	if *name == "" {
		log.Fatal("--name must be specified")
	}

	c, err := client.New(*serverScheme, *serverAddr)
	if err != nil {
		log.Fatalf("failed to create client: %v", err)
	}

	if _, err := c.CreateUser(*name); err != nil {
		log.Fatalf("failed to create user: %v", err)
	}

	gID, err := c.CreateGame(*slots)
	if err != nil {
		log.Fatalf("failed to create game: %v", err)
	}
	fmt.Printf("Created game %q\n", gID)

	if err := io.Play(os.Stdin, os.Stdout, c.Session(gID)); err != nil {
		log.Fatal(err)
	}
}
