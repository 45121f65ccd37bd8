package main

import (
	"log"

	"github.com/MrSnakeDoc/patientshare/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ patientshare failed to start: %v", err)
	}
}
