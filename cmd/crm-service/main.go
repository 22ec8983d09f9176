package main

import (
	"os"

	"github.com/psds-microservice/crm-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
