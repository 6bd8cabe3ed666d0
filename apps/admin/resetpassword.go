package main

import (
	"context"
	"fmt"
	"time"

	"github.com/codesage/codesage/core"
)

// resetPassword sets a new password for the user with the given username or
// email.
func (cli *commandLine) resetPassword(ctx context.Context, uname, pwd string) error {
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
	if err != nil {
		return err
	}

	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err = cli.usrRepo.UpdateUser(ctx, usr, nil, nil, nil); err != nil {
		return err
	}

	fmt.Printf("password reset for %s\n", usr.Username)
	return nil
}
