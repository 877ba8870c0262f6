package main

import (
	"os"

	"github.com/newsflow/go-annotator-service/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
