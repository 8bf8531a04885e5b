package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/robfig/cron/v3"

	"crisiswatch/internal/globaltime"
	"crisiswatch/internal/scheduler"
)

func runJobs(args []string) int {
	fs := flag.NewFlagSet("jobs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	timezone := fs.String("timezone", "UTC", "Timezone for next activation times")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	location, err := time.LoadLocation(strings.TrimSpace(*timezone))
	if err != nil {
		fmt.Fprintf(os.Stderr, "--timezone %q is not a valid IANA timezone\n", *timezone)
		return 2
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	now := globaltime.Now().In(location)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSPEC\tACTION\tACTIVE\tNEXT")
	for _, job := range scheduler.Registry() {
		next := "-"
		schedule, err := parser.Parse(job.Spec)
		if err == nil && job.Active {
			next = schedule.Next(now).Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", job.Name, job.Spec, job.ActionName, job.Active, next)
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to print registry: %v\n", err)
		return 1
	}
	return 0
}
