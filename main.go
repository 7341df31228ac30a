package main

import (
	"log"

	"yashubustudio/glyphocr/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatalf("glyphocr: %v", err)
	}
}
