package main

import (
	"os"

	"github.com/koustreak/dbverify/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
