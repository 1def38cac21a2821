package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophcrud/internal/admin"
	"github.com/dmitrijs2005/gophcrud/internal/server/config"
)

func main() {

	cfg := config.LoadConfig()
	cmd := admin.NewRootCmd(admin.DefaultEnv(cfg))

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

}
