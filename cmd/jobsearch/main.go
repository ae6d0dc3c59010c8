package main

import (
	"os"

	"job-aggregator/internal/cli"
	"job-aggregator/internal/domain"
)

func main() {
	os.Exit(cli.Main(domain.KindJob, os.Args[1:]))
}
