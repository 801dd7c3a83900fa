package main

import (
	"context"
	"fmt"

	"github.com/trezcool/niva/core/auth"
)

func (cli *commandLine) register(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("register")
	email := fs.String("email", "", "The account's email. The password will be prompted next.")
	role := fs.String("role", "user", "The account type: user or admin.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireFlags(fs, "email"); err != nil {
		return err
	}
	pwd, err := cli.readPassword("Enter password:")
	if err != nil {
		return err
	}
	if pwd == "" {
		fs.Usage()
		return errHelp
	}

	reg, err := cli.authSvc.Register(ctx, auth.RegisterRequest{Email: *email, Password: pwd, RoleType: *role})
	if err != nil {
		return err
	}
	cli.println(reg.Message)
	cli.println("You can now log in with `niva login -email", *email+"`.")
	return nil
}

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("login")
	email := fs.String("email", "", "The account's email. The password will be prompted next.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireFlags(fs, "email"); err != nil {
		return err
	}
	pwd, err := cli.readPassword("Enter password:")
	if err != nil {
		return err
	}
	if pwd == "" {
		fs.Usage()
		return errHelp
	}

	res, err := cli.authSvc.Login(ctx, auth.Credentials{Email: *email, Password: pwd})
	if err != nil {
		return err
	}
	name := *email
	if res.User != nil {
		name = res.User.DisplayName()
	}
	cli.printf("Logged in as %s (%s).\n", name, res.Role)
	if !res.Role.IsAdmin() && res.StudentID == "" {
		cli.println("No student profile yet: create it with `niva students save`.")
	}
	return nil
}

func (cli *commandLine) logout(ctx context.Context) error {
	if err := cli.authSvc.Logout(ctx); err != nil {
		return err
	}
	cli.println("Logged out.")
	return nil
}

func (cli *commandLine) whoami(ctx context.Context) error {
	usr, err := cli.authSvc.CurrentUser(ctx)
	if err != nil {
		return err
	}
	studentID, err := cli.sess.StudentID(ctx)
	if err != nil {
		return err
	}

	w := cli.table()
	_, _ = fmt.Fprintf(w, "ID\t%s\n", usr.ID)
	_, _ = fmt.Fprintf(w, "Email\t%s\n", usr.Email)
	_, _ = fmt.Fprintf(w, "Name\t%s\n", usr.DisplayName())
	_, _ = fmt.Fprintf(w, "Role\t%s\n", usr.Role)
	if studentID != "" {
		_, _ = fmt.Fprintf(w, "Student\t%s\n", studentID)
	}
	return w.Flush()
}

func (cli *commandLine) role(ctx context.Context) error {
	cli.println(cli.authSvc.ResolveRole(ctx))
	return nil
}
