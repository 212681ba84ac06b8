// Command jobvocab serves the job vocabulary API.
package main

import (
	"context"
	"log"

	"github.com/patric-chuzhbe/jobvocab/internal/app"
)

func main() {
	ctx := context.Background()

	theApp, err := app.New(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer theApp.Close()

	if err := theApp.Run(ctx); err != nil {
		log.Println("Server stopped with error:", err)
	}
}
