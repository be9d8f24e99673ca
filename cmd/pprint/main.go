// Command pprint prints an IR module as assembly source.
package main

import (
	"log"
	"os"

	"golang.org/x/term"
)

func main() {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.SetFlags(0)
	} else {
		log.SetFlags(log.LstdFlags)
	}
	log.SetPrefix("pprint: ")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
