package main

import (
	"log"
	"math/rand"
	"os"

	"github.com/bcspragu/Set/cryptorand"
	"github.com/bcspragu/Set/io"
	"github.com/bcspragu/Set/set"
	"github.com/namsral/flag"
)

func main() {
	var (
		slots = flag.Int("slots", set.DefaultSlotCount, "Number of places on the table for cards")
		seed  = flag.Int64("seed", 0, "Seed for shuffling, for replaying a deal. Zero means a random deal every time.")
	)
	flag.Parse()

	r := cryptorand.New()
	if *seed != 0 {
		r = rand.New(rand.NewSource(*seed))
	}

	s, err := io.NewLocal(*slots, r)
	if err != nil {
		log.Fatalf("Failed to start game: %v", err)
	}

	if err := io.Play(os.Stdin, os.Stdout, s); err != nil {
		log.Fatal(err)
	}
}
