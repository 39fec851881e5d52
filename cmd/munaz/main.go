// cmd/munaz/main.go
package main

import (
	"context"
	"log"

	"github.com/alexb007/munaz-backend/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	// WAFFLE builds the zap logger during LoadConfig, so a failure here is
	// reported before any structured logger exists.
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
