package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resetpassword --email EMAIL",
		Short: "Reset a user's password. The password is prompted next.",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := requireEmail(cmd)
			if err != nil {
				return err
			}
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			if _, err = cli.usrSvc.SetPassword(cmd.Context(), email, pwd); err != nil {
				return err
			}
			fmt.Fprintln(cli.out, "password updated")
			return nil
		},
	}
	cmd.Flags().String("email", "", "The user's email")
	return cmd
}
