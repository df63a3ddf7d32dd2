package export

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	appexport "printforge/internal/app/export"
	"printforge/internal/app/repository/sqlite"
	"printforge/internal/config"
)

var userID string
var outputFilePath string
var kind string

func init() {
	Cmd.Flags().StringVarP(&userID, "user", "u", "", "set the user whose records are exported")
	Cmd.Flags().StringVarP(&outputFilePath, "output", "o", "", "set the output file path, extension picks the format (.csv/.json/.xlsx)")
	Cmd.Flags().StringVarP(&kind, "kind", "k", "conversions", "what to export: conversions or print_jobs")

	Cmd.MarkFlagRequired("user")
	Cmd.MarkFlagRequired("output")
}

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's conversion or print job history to a file",
	Run: func(cmd *cobra.Command, args []string) {
		format := strings.TrimPrefix(filepath.Ext(outputFilePath), ".")
		if format == "" {
			log.Fatal("output file needs a .csv, .json or .xlsx extension")
		}

		dbPath := os.Getenv("SQLITE_PATH")
		if dbPath == "" {
			projectRoot, err := config.GetProjectRoot()
			if err != nil {
				log.Fatalf("failed to get project root: %v", err)
			}
			dbPath = filepath.Join(projectRoot, "data", "printforge.db")
		}
		store, err := sqlite.NewSQLiteStore(dbPath)
		if err != nil {
			log.Fatalf("failed to open store: %v", err)
		}
		defer store.Close()

		out, err := os.Create(outputFilePath)
		if err != nil {
			log.Fatalf("failed to create output file: %v", err)
		}
		defer out.Close()

		ctx := context.Background()
		switch kind {
		case "print_jobs":
			jobs, err := store.ListPrintJobsByUser(ctx, userID, 10000, 0)
			if err != nil {
				log.Fatal(err)
			}
			err = appexport.PrintJobs(jobs, format, out)
			if err != nil {
				log.Fatal(err)
			}
		case "conversions":
			records, err := store.ListConversionsByUser(ctx, userID, 10000, 0)
			if err != nil {
				log.Fatal(err)
			}
			err = appexport.Conversions(records, format, out)
			if err != nil {
				log.Fatal(err)
			}
		default:
			log.Fatalf("unknown kind %q", kind)
		}

		fmt.Printf("export finished, exported file path: %v\n", outputFilePath)
	},
}
