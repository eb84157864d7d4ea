package main

import (
	"os"

	"github.com/scan-io-git/scanio-ide/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
