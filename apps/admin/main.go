package main

import (
	"log"
	"os"

	"github.com/motaylenko/meedle/core"
	"github.com/motaylenko/meedle/storage/database"
	sqlxrepos "github.com/motaylenko/meedle/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)

	// set up DB
	dbx, err := database.OpenX(conf)
	errAndDie(err)
	defer dbx.Close()
	errAndDie(database.Ping(dbx.DB))

	// start CLI
	cli := commandLine{
		db:      dbx.DB,
		usrRepo: sqlxrepos.NewUserRepository(dbx),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
