// Command sentinel classifies buy/sell signals for a ticker universe.
//
//	sentinel run        analyze the universe once and save the results
//	sentinel schedule   run the analysis on a cron schedule
//	sentinel show       print the latest saved run
package main

import (
	"os"

	"StockSentinel/cmd/sentinel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
