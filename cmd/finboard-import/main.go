// finboard-import merges a CSV file into one of a user's tables from the
// command line, sharing the validation and merge rules of the web upload.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"finboard/internal/cli"
	"finboard/internal/log"
	"finboard/internal/store"
)

func main() {
	var (
		user = flag.String("user", "", "username whose table receives the rows")
		kind = flag.String("kind", "", "table kind: transactions, invoices or recurring")
		file = flag.String("file", "", "path to the CSV file to import")
	)
	flag.Parse()

	logger := cli.SetupLogger()
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	if *user == "" || *kind == "" || *file == "" {
		fmt.Fprintln(os.Stderr, "usage: finboard-import -user NAME -kind KIND -file PATH")
		flag.PrintDefaults()
		os.Exit(2)
	}

	k, err := store.ParseKind(*kind)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	records := store.New(cfg.DataDir, logger)
	creds := cli.InitAuth(logger, cfg.SQLiteDBPath, records)
	defer creds.Close()

	ctx := context.Background()
	exists, err := creds.UserExists(ctx, *user)
	if err != nil {
		logger.Error("User lookup failed", log.FieldError, err.Error(), log.FieldUser, *user)
		os.Exit(1)
	}
	if !exists {
		fmt.Fprintf(os.Stderr, "unknown user %q\n", *user)
		os.Exit(1)
	}

	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()

	var n int
	switch k {
	case store.KindTransactions:
		n, err = records.ImportTransactions(ctx, *user, f)
	case store.KindInvoices:
		n, err = records.ImportInvoices(ctx, *user, f)
	case store.KindRecurring:
		n, err = records.ImportRecurring(ctx, *user, f)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "import rejected: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("imported %d rows into %s for %s\n", n, k, *user)
}
