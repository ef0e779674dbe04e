package main

import (
	"os"
	"path/filepath"

	"github.com/saalfeldlab/n5-spark-launcher/cmd/n5spark/cmd"
)

func main() {
	// installed as n5-mips the binary is a drop-in for the launcher script
	if filepath.Base(os.Args[0]) == "n5-mips" {
		os.Exit(cmd.RunMIPS(os.Args[1:]))
	}
	os.Exit(cmd.Execute())
}
