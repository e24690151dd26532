package main

import (
	"fmt"
	"os"

	corecmd "github.com/m3rciful/examsbot/core/cmd"
	"github.com/m3rciful/examsbot/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "examsbot: %v\n", err)
		os.Exit(1)
	}
}
