package main

import (
	"fmt"
	"os"

	"github.com/OliveiraNt/infralens/cmd"
	"github.com/OliveiraNt/infralens/internal/utils"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	utils.InitLogger()

	if err := cmd.Execute(); err != nil {
		utils.Logger.Error("command failed", "err", err)
		_, _ = fmt.Fprintln(os.Stderr, "Tip: use 'infralens --help' for usage information.")
		os.Exit(1)
	}
}
