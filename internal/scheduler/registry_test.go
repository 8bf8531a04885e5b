package scheduler

import (
	"testing"

	"github.com/robfig/cron/v3"
)

func TestRegistrySpecsParse(t *testing.T) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	for _, job := range Registry() {
		if _, err := parser.Parse(job.Spec); err != nil {
			t.Fatalf("job %q has unparseable spec %q: %v", job.Name, job.Spec, err)
		}
	}
}

func TestRegistryNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, job := range Registry() {
		if job.Name == "" {
			t.Fatalf("registry contains a job with an empty name")
		}
		if seen[job.Name] {
			t.Fatalf("duplicate job name %q", job.Name)
		}
		seen[job.Name] = true
	}
}

func TestRegistryActionsNamed(t *testing.T) {
	for _, job := range Registry() {
		if job.ActionName == "" {
			t.Fatalf("job %q has no action name", job.Name)
		}
	}
}
