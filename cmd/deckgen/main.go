package main

import (
	"bytes"
	"fmt"
	"math/rand"

	"github.com/bcspragu/Set/cryptorand"
	"github.com/bcspragu/Set/deckgen"
	"github.com/namsral/flag"
)

func main() {
	seed := flag.Int64("seed", 0, "Seed for the shuffle. Zero means a random one.")
	flag.Parse()

	r := cryptorand.New()
	if *seed != 0 {
		r = rand.New(rand.NewSource(*seed))
	}

	var buf bytes.Buffer
	for _, card := range deckgen.New(r) {
		buf.WriteString(card.String())
		buf.WriteString("\n")
	}

	fmt.Print(buf.String())
}
