package main

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/motaylenko/meedle/core"
	"github.com/motaylenko/meedle/core/user"
)

func (cli *commandLine) blockUser(uname, reason string, until *time.Time) error {
	ctx := context.Background()
	usr, err := cli.getUser(ctx, uname)
	if err != nil {
		return err
	}

	nullUntil := null.TimeFromPtr(until)
	if nullUntil.Valid {
		nullUntil.Time = nullUntil.Time.UTC()
	}
	_, err = cli.usrRepo.SetBlockState(ctx, usr.ID, false, null.NewString(reason, reason != ""), nullUntil)
	return err
}

func (cli *commandLine) unblockUser(uname string) error {
	ctx := context.Background()
	usr, err := cli.getUser(ctx, uname)
	if err != nil {
		return err
	}

	_, err = cli.usrRepo.SetBlockState(ctx, usr.ID, true, null.String{}, null.Time{})
	return err
}

func (cli *commandLine) getUser(ctx context.Context, uname string) (user.User, error) {
	uname = core.CleanString(uname, true /* lower */)
	return cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{uname}})
}
