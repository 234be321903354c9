package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/dmitrijs2005/anoninbox/internal/admin"
	"github.com/dmitrijs2005/anoninbox/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := admin.NewApp(cfg, os.Stdin, os.Stdout)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	err = app.Run(ctx, config.Positional(os.Args[1:]))
	_ = app.Close()

	if err != nil {
		if errors.Is(err, admin.ErrUsage) {
			log.Print(err)
			os.Exit(2)
		}
		log.Fatalf("%v", err)
	}

}
