package main

import (
	"context"
	"fmt"

	"github.com/trezcool/niva/core/course"
)

func (cli *commandLine) courses(ctx context.Context, args []string) error {
	sub, args, err := cli.subcommand("courses", args, "list", "get", "create", "update", "delete")
	if err != nil {
		return err
	}

	fs := cli.newFlagSet("courses " + sub)
	id := fs.String("id", "", "The course id.")
	switch sub {
	case "list":
		all := fs.Bool("all", false, "Include the full course details (admins only).")
		active := fs.String("active", "", "With -all, only list active (true) or inactive (false) courses.")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		return cli.listCourses(ctx, *all, *active)

	case "get":
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if err := requireFlags(fs, "id"); err != nil {
			return err
		}
		c, err := cli.courseSvc.Get(ctx, *id)
		if err != nil {
			return err
		}
		return cli.printCourse(c)

	case "create", "update":
		var passing, max floatFlag
		name := fs.String("name", "", "The course name.")
		desc := fs.String("description", "", "The course description.")
		fs.Var(&passing, "passing", "The passing score (0-100).")
		fs.Var(&max, "max", "The maximum score (0-100).")
		syllabus := fs.String("syllabus", "", "The syllabus.")
		instructions := fs.String("instructions", "", "Instructions for the interview agent.")
		criteria := fs.String("criteria", "", "The evaluation criteria.")
		inactive := fs.Bool("inactive", false, "Mark the course inactive.")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if _, err := cli.requireAdmin(ctx); err != nil {
			return err
		}

		var res course.Result
		if sub == "create" {
			nc := course.NewCourse{
				Name:               *name,
				Description:        *desc,
				IsActive:           boolPtr(!*inactive),
				PassingScore:       passing.val,
				MaxScore:           max.val,
				Syllabus:           *syllabus,
				Instructions:       *instructions,
				EvaluationCriteria: *criteria,
			}
			if res, err = cli.courseSvc.Create(ctx, nc); err != nil {
				return err
			}
		} else {
			if err := requireFlags(fs, "id"); err != nil {
				return err
			}
			set := setFlags(fs)
			uc := course.UpdateCourse{PassingScore: passing.val, MaxScore: max.val}
			if set["name"] {
				uc.Name = name
			}
			if set["description"] {
				uc.Description = desc
			}
			if set["syllabus"] {
				uc.Syllabus = syllabus
			}
			if set["instructions"] {
				uc.Instructions = instructions
			}
			if set["criteria"] {
				uc.EvaluationCriteria = criteria
			}
			if set["inactive"] {
				uc.IsActive = boolPtr(!*inactive)
			}
			if res, err = cli.courseSvc.Update(ctx, *id, uc); err != nil {
				return err
			}
		}
		cli.println(res.Message)
		return cli.printCourse(res.Course)

	case "delete":
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if err := requireFlags(fs, "id"); err != nil {
			return err
		}
		if _, err := cli.requireAdmin(ctx); err != nil {
			return err
		}
		msg, err := cli.courseSvc.Delete(ctx, *id)
		if err != nil {
			return err
		}
		cli.println(msg)
	}
	return nil
}

func (cli *commandLine) listCourses(ctx context.Context, all bool, active string) error {
	var (
		courses []course.Course
		err     error
	)
	if !all {
		if courses, err = cli.courseSvc.List(ctx); err != nil {
			return err
		}
		w := cli.table()
		_, _ = fmt.Fprintln(w, "ID\tNAME")
		for _, c := range courses {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Name)
		}
		return w.Flush()
	}

	var isActive *bool
	switch active {
	case "":
	case "true", "false":
		isActive = boolPtr(active == "true")
	default:
		return fmt.Errorf("-active must be true or false (got %q)", active)
	}
	if courses, err = cli.courseSvc.All(ctx, isActive); err != nil {
		return err
	}
	w := cli.table()
	_, _ = fmt.Fprintln(w, "ID\tNAME\tACTIVE\tPASSING\tMAX")
	for _, c := range courses {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", c.ID, c.Name, c.IsActive, c.PassingScore, c.MaxScore)
	}
	return w.Flush()
}

func (cli *commandLine) printCourse(c course.Course) error {
	w := cli.table()
	_, _ = fmt.Fprintf(w, "ID\t%s\n", c.ID)
	_, _ = fmt.Fprintf(w, "Name\t%s\n", c.Name)
	_, _ = fmt.Fprintf(w, "Description\t%s\n", c.Description)
	_, _ = fmt.Fprintf(w, "Active\t%t\n", c.IsActive)
	_, _ = fmt.Fprintf(w, "Scores\t%s / %s\n", c.PassingScore, c.MaxScore)
	if c.Syllabus != "" {
		_, _ = fmt.Fprintf(w, "Syllabus\t%s\n", c.Syllabus)
	}
	if c.EvaluationCriteria != "" {
		_, _ = fmt.Fprintf(w, "Evaluation\t%s\n", c.EvaluationCriteria)
	}
	return w.Flush()
}
