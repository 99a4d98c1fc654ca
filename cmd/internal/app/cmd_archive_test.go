package app

import (
	"errors"
	"testing"
	"time"
)

func TestReportStart(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 10, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		since string
		from  string
		want  string
		err   bool
	}{
		{name: "default week", want: "2024-06-03"},
		{name: "from flag", from: "2024-05-01", want: "2024-05-01"},
		{name: "since wins", since: "2024-06-09", from: "2024-05-01", want: "2024-06-09"},
		{name: "bad date", since: "06/09/2024", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := reportStart(tt.since, tt.from, now)
			if tt.err {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("reportStart: %v", err)
			}
			if got.Format(time.DateOnly) != tt.want || got.Hour() != 0 {
				t.Fatalf("got %v want %s midnight", got, tt.want)
			}
		})
	}
}

func TestRun_ArchiveWithoutDatabase(t *testing.T) {
	_, srv := newFakeBackend(t)
	cliEnv(t, srv.URL)
	t.Setenv("TELECALL_DATABASE_URL", "")
	login(t, "manager")

	_, err := runCLI(t, "archive")
	if !errors.Is(err, ErrNoDatabase) {
		t.Fatalf("err=%v want ErrNoDatabase", err)
	}
}
