package main

import (
	"os"

	"github.com/EmpoweredVote/EV-CityMap/cmd/cityctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
