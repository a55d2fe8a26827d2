package main

import (
	"fmt"
	"os"

	"github.com/yungbote/studentbridge-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Start()

	addr := os.Getenv("SERVER_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	if err := a.Run(addr); err != nil {
		fmt.Printf("server exited: %v\n", err)
		os.Exit(1)
	}
}
