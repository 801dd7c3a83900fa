package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/trezcool/niva/core/student"
)

func (cli *commandLine) students(ctx context.Context, args []string) error {
	sub, args, err := cli.subcommand("students", args, "list", "get", "me", "save", "delete")
	if err != nil {
		return err
	}

	fs := cli.newFlagSet("students " + sub)
	switch sub {
	case "list":
		courseID := fs.String("course", "", "Only list the students enrolled in this course.")
		email := fs.String("email", "", "Only list the students with this email.")
		phone := fs.String("phone", "", "Only list the students with this phone number.")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if _, err := cli.requireAdmin(ctx); err != nil {
			return err
		}
		students, err := cli.studentSvc.All(ctx, student.Filter{CourseID: *courseID, Email: *email, PhoneNumber: *phone})
		if err != nil {
			return err
		}
		w := cli.table()
		_, _ = fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tCOURSES\tUSER")
		for _, st := range students {
			names := make([]string, 0, len(st.Courses))
			for _, c := range st.Courses {
				names = append(names, c.Name)
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				st.ID, st.Name(), st.Email, st.PhoneNumber, strings.Join(names, ", "), st.UserID)
		}
		return w.Flush()

	case "get":
		id := fs.String("id", "", "The student id.")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if err := requireFlags(fs, "id"); err != nil {
			return err
		}
		st, err := cli.studentSvc.Get(ctx, *id)
		if err != nil {
			return err
		}
		return cli.printStudent(st)

	case "me":
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		st, err := cli.studentSvc.Profile(ctx)
		if err != nil {
			return err
		}
		return cli.printStudent(st)

	case "save":
		var ns student.NewStudent
		fs.StringVar(&ns.FirstName, "first-name", "", "First name.")
		fs.StringVar(&ns.LastName, "last-name", "", "Last name.")
		fs.StringVar(&ns.PhoneNumber, "phone", "", "Phone number.")
		fs.StringVar(&ns.Email, "email", "", "Contact email.")
		gender := fs.String("gender", "", "MALE, FEMALE, RATHER_NOT_SAY or UNKNOWN.")
		fs.StringVar(&ns.DateOfBirth, "dob", "", "Date of birth (YYYY-MM-DD).")
		courses := fs.String("courses", "", "Comma separated ids of the courses to enroll in.")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		ns.Gender = student.Gender(*gender)
		ns.CourseIDs = splitList(*courses)

		res, err := cli.studentSvc.SaveProfile(ctx, ns)
		if err != nil {
			return err
		}
		if res.Created {
			cli.println("Student profile created.")
		} else {
			cli.println("Student profile updated.")
		}
		if res.Warning != nil {
			cli.println("Warning:", res.Warning)
		}
		return cli.printStudent(res.Student)

	case "delete":
		id := fs.String("id", "", "The student id.")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if err := requireFlags(fs, "id"); err != nil {
			return err
		}
		if _, err := cli.requireAdmin(ctx); err != nil {
			return err
		}
		msg, err := cli.studentSvc.Delete(ctx, *id)
		if err != nil {
			return err
		}
		cli.println(msg)
	}
	return nil
}

func (cli *commandLine) printStudent(st student.Student) error {
	w := cli.table()
	_, _ = fmt.Fprintf(w, "ID\t%s\n", st.ID)
	_, _ = fmt.Fprintf(w, "Name\t%s\n", st.Name())
	_, _ = fmt.Fprintf(w, "Phone\t%s\n", st.PhoneNumber)
	if st.Email != "" {
		_, _ = fmt.Fprintf(w, "Email\t%s\n", st.Email)
	}
	_, _ = fmt.Fprintf(w, "Gender\t%s\n", st.Gender)
	if st.DateOfBirth != "" {
		_, _ = fmt.Fprintf(w, "Born\t%s\n", st.DateOfBirth)
	}
	for i, c := range st.Courses {
		label := ""
		if i == 0 {
			label = "Courses"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s (%s)\n", label, c.Name, c.ID)
	}
	return w.Flush()
}
