package main

import (
	"log"
	"os"
	"syscall"

	"github.com/judwhite/go-svc"

	"github.com/MrSnakeDoc/printshare/internal/app"
)

func main() {
	if err := svc.Run(app.New(os.Args[1:]), syscall.SIGINT, syscall.SIGTERM); err != nil {
		log.Fatalf("printshare failed: %v", err)
	}
}
