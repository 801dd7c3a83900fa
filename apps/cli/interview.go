package main

import (
	"context"
	"fmt"

	"github.com/trezcool/niva/core/call"
)

func (cli *commandLine) interview(ctx context.Context, args []string) error {
	sub, args, err := cli.subcommand("interview", args, "join")
	if err != nil {
		return err
	}

	fs := cli.newFlagSet("interview " + sub)
	courseID := fs.String("course", "", "The course to be interviewed on.")
	agentID := fs.String("agent", "", "A specific interview agent.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireFlags(fs, "course"); err != nil {
		return err
	}

	cs, err := cli.callSvc.Initiate(ctx, call.InitiateRequest{CourseID: *courseID, AgentID: *agentID})
	if err != nil {
		return err
	}
	w := cli.table()
	_, _ = fmt.Fprintf(w, "Course\t%s\n", cs.CourseName)
	_, _ = fmt.Fprintf(w, "Interviewer\t%s\n", cs.AgentName)
	_, _ = fmt.Fprintf(w, "Room\t%s\n", cs.RoomURL)
	_, _ = fmt.Fprintf(w, "Token\t%s\n", cs.Token)
	if cs.SIPEndpoint != "" {
		_, _ = fmt.Fprintf(w, "SIP\t%s\n", cs.SIPEndpoint)
	}
	_, _ = fmt.Fprintf(w, "Call\t%s\n", cs.DailyCallID)
	return w.Flush()
}
