package main

import (
	"log"

	"github.com/Jahmax1/Dragotix/cmd"
)

func main() {
	if err := cmd.Start(); err != nil {
		log.Fatal(err)
	}
}
