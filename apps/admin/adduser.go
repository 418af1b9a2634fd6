package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adduser --email EMAIL [--name NAME]",
		Short: "Create an active user, or reactivate an existing one. The password is prompted next.",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := requireEmail(cmd)
			if err != nil {
				return err
			}
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("name")

			usr, err := cli.addUser(cmd, name, email, pwd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "user %s (%s) is ready\n", usr.Email, usr.ID)
			return nil
		},
	}
	cmd.Flags().String("email", "", "The user's email")
	cmd.Flags().String("name", "", "The user's name")
	return cmd
}

// addUser updates or creates an active user. New users get the default study plan.
func (cli *commandLine) addUser(cmd *cobra.Command, name, email, pwd string) (user.User, error) {
	ctx := cmd.Context()
	email = core.CleanString(email, true /* lower */)

	if _, err := cli.usrSvc.GetByEmail(ctx, email); err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return user.User{}, err
		}
		usr, err := cli.usrSvc.Register(ctx, user.NewUser{Name: name, Email: email, Password: pwd, PasswordConfirm: pwd})
		if err != nil {
			return user.User{}, err
		}
		return usr, cli.planSvc.Initialize(ctx, usr.ID)
	}

	if _, err := cli.usrSvc.SetPassword(ctx, email, pwd); err != nil {
		return user.User{}, err
	}
	return cli.usrSvc.SetActive(ctx, email, true)
}
