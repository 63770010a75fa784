package main

import (
	"fmt"
	"os"

	"github.com/Rajatchopra3/Task-Management-System/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{Use: "taskman"}

func main() {
	rootCmd.PersistentFlags().String("db", os.Getenv("DATABASE_URL"), "Database connection string")
	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
