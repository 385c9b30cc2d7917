package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/motaylenko/meedle/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sql.DB
	usrRepo user.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -username USERNAME -email EMAIL [-admin] - create or update a user; the password is prompted")
	fmt.Println("  blockuser -username USERNAME|EMAIL [-reason REASON] [-until YYYY-MM-DD] - block a user's account")
	fmt.Println("  unblockuser -username USERNAME|EMAIL - lift a user's block")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  migrate COMMAND [args] - run database migrations (up, down, status, ...)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant all roles to the user.")

	blockUserCmd := flag.NewFlagSet("blockuser", flag.ExitOnError)
	blockUserUname := blockUserCmd.String("username", "", "The user's username or email.")
	blockUserReason := blockUserCmd.String("reason", "", "Why the account is blocked.")
	blockUserUntil := blockUserCmd.String("until", "", "Block expiry date (YYYY-MM-DD); indefinite when omitted.")

	unblockUserCmd := flag.NewFlagSet("unblockuser", flag.ExitOnError)
	unblockUserUname := unblockUserCmd.String("username", "", "The user's username or email.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserUname, *addUserEmail, pwd, *addUserAdmin)
	case "blockuser":
		if err := blockUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *blockUserUname == "" {
			blockUserCmd.Usage()
			return errHelp
		}
		var until *time.Time
		if *blockUserUntil != "" {
			t, err := time.ParseInLocation("2006-01-02", *blockUserUntil, time.UTC)
			if err != nil {
				return fmt.Errorf("invalid -until date %q, expected YYYY-MM-DD", *blockUserUntil)
			}
			until = &t
		}
		return cli.blockUser(*blockUserUname, *blockUserReason, until)
	case "unblockuser":
		if err := unblockUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *unblockUserUname == "" {
			unblockUserCmd.Usage()
			return errHelp
		}
		return cli.unblockUser(*unblockUserUname)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
