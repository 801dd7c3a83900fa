package main

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"net/mail"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/niva/core"
	"github.com/trezcool/niva/core/feedback"
	exportsvc "github.com/trezcool/niva/services/export"
)

func (cli *commandLine) feedback(ctx context.Context, args []string) error {
	sub, args, err := cli.subcommand("feedback", args, "list", "get", "export")
	if err != nil {
		return err
	}

	fs := cli.newFlagSet("feedback " + sub)
	switch sub {
	case "list":
		studentID := fs.String("student", "", "Only show this student's feedback (admins only).")
		courseID := fs.String("course", "", "Only show the feedback of this course (admins only).")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		res, _, err := cli.loadFeedback(ctx, feedback.AggregationRequest{StudentID: *studentID, CourseID: *courseID})
		if err != nil {
			return err
		}
		return cli.printFeedbackList(res)

	case "get":
		id := fs.String("id", "", "The feedback id.")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if err := requireFlags(fs, "id"); err != nil {
			return err
		}
		rec, err := cli.feedbackSvc.Get(ctx, *id)
		if err != nil {
			return err
		}
		return cli.printFeedback(rec)

	case "export":
		studentID := fs.String("student", "", "Only export this student's feedback (admins only).")
		courseID := fs.String("course", "", "Only export the feedback of this course (admins only).")
		path := fs.String("xlsx", "", "Write the report to this .xlsx file.")
		mailTo := fs.String("mail-to", "", "Email the report to these comma separated addresses.")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if *path == "" && *mailTo == "" {
			fs.Usage()
			return errHelp
		}
		to, err := core.ParseAddresses(*mailTo)
		if err != nil {
			return err
		}
		req := feedback.AggregationRequest{StudentID: *studentID, CourseID: *courseID}
		res, dir, err := cli.loadFeedback(ctx, req)
		if err != nil {
			return err
		}
		return cli.exportFeedback(ctx, res, reportTitle(req, dir), *path, to)
	}
	return nil
}

// loadFeedback resolves the role, loads the filters directory and aggregates the visible feedback.
func (cli *commandLine) loadFeedback(ctx context.Context, req feedback.AggregationRequest) (feedback.Result, feedback.Directory, error) {
	role := cli.authSvc.ResolveRole(ctx)
	if !role.IsAdmin() && (req.StudentID != "" || req.CourseID != "") {
		cli.println("Note: -student and -course are reserved to admins, showing your own feedback.")
		req = feedback.AggregationRequest{}
	}
	dir, err := feedback.LoadDirectory(ctx, cli.courseSvc, cli.studentSvc, role)
	if err != nil {
		return feedback.Result{}, dir, err
	}
	res, err := cli.aggregator.Load(ctx, role, req, dir)
	if err != nil {
		return feedback.Result{}, dir, err
	}
	if res.SkippedPairs > 0 {
		cli.printf("Warning: %d student/course queries failed and were skipped.\n", res.SkippedPairs)
	}
	return res, dir, nil
}

func reportTitle(req feedback.AggregationRequest, dir feedback.Directory) string {
	title := "All students"
	if req.StudentID != "" {
		title = req.StudentID
		if st, ok := dir.Student(req.StudentID); ok {
			title = st.Name()
		}
	}
	if req.CourseID != "" {
		name := dir.CourseName(req.CourseID)
		if name == "" {
			name = req.CourseID
		}
		title += " - " + name
	}
	return title
}

func (cli *commandLine) printFeedbackList(res feedback.Result) error {
	if res.Status == feedback.StatusEmpty {
		if res.Source == feedback.SourceEnumerated {
			cli.printf("No feedback found (%d students checked).\n", res.StudentsChecked)
		} else {
			cli.println("No feedback found.")
		}
		return nil
	}

	w := cli.table()
	_, _ = fmt.Fprintln(w, "ID\tDATE\tSTUDENT\tCOURSE\tAVERAGE\tBAND")
	for _, rec := range res.Records {
		date := "-"
		if rec.HasTimestamp() {
			date = rec.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ID, date, rec.StudentName, rec.CourseName, rec.AverageRating, feedback.RatingBand(rec.AverageRating))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	cli.printf("%d record(s)", len(res.Records))
	if res.Source == feedback.SourceEnumerated {
		cli.printf(" from %d of %d students checked", res.StudentsWithRecords, res.StudentsChecked)
	}
	cli.println(".")
	return nil
}

func (cli *commandLine) printFeedback(rec feedback.Record) error {
	w := cli.table()
	_, _ = fmt.Fprintf(w, "ID\t%s\n", rec.ID)
	_, _ = fmt.Fprintf(w, "Student\t%s\n", rec.StudentName)
	_, _ = fmt.Fprintf(w, "Course\t%s\n", rec.CourseName)
	_, _ = fmt.Fprintf(w, "Interviewer\t%s\n", rec.AgentName)
	_, _ = fmt.Fprintf(w, "Date\t%s\n", rec.CreatedAtRaw)
	_, _ = fmt.Fprintf(w, "Overall\t%s\n", rec.Ratings.Overall)
	_, _ = fmt.Fprintf(w, "Communication\t%s\n", rec.Ratings.Communication)
	_, _ = fmt.Fprintf(w, "Technical\t%s\n", rec.Ratings.Technical)
	_, _ = fmt.Fprintf(w, "Confidence\t%s\n", rec.Ratings.Confidence)
	_, _ = fmt.Fprintf(w, "Average\t%s (%s)\n", rec.AverageRating, feedback.RatingBand(rec.AverageRating))
	if err := w.Flush(); err != nil {
		return err
	}
	for _, section := range []struct{ title, text string }{
		{"Feedback", rec.Text},
		{"Strengths", rec.Strengths},
		{"Improvements", rec.Improvements},
		{"Recommendations", rec.Recommendations},
	} {
		if section.text != "" {
			cli.printf("\n%s:\n%s\n", section.title, section.text)
		}
	}
	return nil
}

type reportData struct {
	Title     string
	Count     int
	Generated string
}

func (cli *commandLine) exportFeedback(ctx context.Context, res feedback.Result, title, path string, to []mail.Address) error {
	now := time.Now()
	buf := new(bytes.Buffer)
	if err := exportsvc.WriteXLSX(buf, exportsvc.Report{Title: title, Records: res.Records, Generated: now}); err != nil {
		return err
	}

	if path != "" {
		if err := ioutil.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return errors.Wrap(err, "writing report")
		}
		cli.printf("%d record(s) written to %s.\n", len(res.Records), path)
	}

	if len(to) > 0 {
		filename := "feedback-" + now.Format("20060102") + ".xlsx"
		if path != "" {
			filename = filepath.Base(path)
		}
		msg := &core.EmailMessage{
			To:           to,
			Subject:      "Feedback report: " + title,
			TemplateName: "feedback_report",
			TemplateData: reportData{Title: title, Count: len(res.Records), Generated: now.Format("2006-01-02 15:04")},
		}
		if err := msg.Attach(bytes.NewReader(buf.Bytes()), filename, exportsvc.ContentTypeXLSX); err != nil {
			return err
		}
		if err := cli.emailSvc.Send(ctx, msg); err != nil {
			return err
		}
		cli.printf("Report sent to %d recipient(s).\n", len(to))
	}
	return nil
}
