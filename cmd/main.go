package main

import (
	"fmt"
	"os"

	"github.com/drivewise/drivewise-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	a.Log.Info("starting server", "port", port)
	if err := a.Run(":" + port); err != nil {
		a.Log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}
