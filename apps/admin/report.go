package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trezcool/studyplanner/core/plan"
	exportsvc "github.com/trezcool/studyplanner/services/export"
)

// storedPlan loads the saved plan of the user with the given email.
// Users who never saved get the default plan.
func (cli *commandLine) storedPlan(ctx context.Context, email string) (plan.Plan, error) {
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return plan.Plan{}, err
	}
	p, err := cli.planSvc.Load(ctx, usr.ID)
	if errors.Is(err, plan.ErrPlanNotFound) {
		return plan.NewDefault(), nil
	}
	return p, err
}

func (cli *commandLine) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report --email EMAIL",
		Short: "Print the progress report of a user's saved plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := requireEmail(cmd)
			if err != nil {
				return err
			}
			p, err := cli.storedPlan(cmd.Context(), email)
			if err != nil {
				return err
			}
			quote := plan.NewQuoteSelector(nil).Pick()
			fmt.Fprintln(cli.out, exportsvc.Terminal(p, plan.Compute(p), quote))
			return nil
		},
	}
	cmd.Flags().String("email", "", "The user's email")
	return cmd
}

func (cli *commandLine) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export --email EMAIL [--out FILE]",
		Short: "Write a user's saved plan and report to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := requireEmail(cmd)
			if err != nil {
				return err
			}
			p, err := cli.storedPlan(cmd.Context(), email)
			if err != nil {
				return err
			}

			buf, err := exportsvc.XLSX(p, plan.Compute(p))
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = exportsvc.XLSXFilename(p.StudentName)
			}
			if err = os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "plan exported to %s\n", out)
			return nil
		},
	}
	cmd.Flags().String("email", "", "The user's email")
	cmd.Flags().String("out", "", "Output file (default study-plan-<student>.xlsx)")
	return cmd
}
