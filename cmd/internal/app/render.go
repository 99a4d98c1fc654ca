package app

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"telecall/cmd/internal/callcenter"
	"telecall/cmd/internal/session"
)

// — styles ——————————————————————————————————————————————————————————————————

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Faint(true)
)

// — tables ——————————————————————————————————————————————————————————————————

func renderTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, _ = fmt.Fprintln(w, t.Render())
}

func renderKV(w io.Writer, pairs [][2]string) {
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{p[0], p[1]})
	}
	renderTable(w, []string{"field", "value"}, rows)
}

func renderFooter(w io.Writer, shown, page, total int, more bool) {
	line := fmt.Sprintf("page %d, %d shown of %d", page, shown, total)
	if more {
		line += " (use --page for more)"
	}
	_, _ = fmt.Fprintln(w, footerStyle.Render(line))
}

func identityRows(id session.Identity) [][2]string {
	return [][2]string{
		{"subject", id.SubjectID},
		{"role", string(id.Role)},
		{"name", id.Name},
		{"mobile", id.Mobile},
		{"device", string(id.Device())},
		{"signed in", formatTime(id.IssuedAt)},
	}
}

func statsRows(s callcenter.DashboardStats, role session.Role) [][2]string {
	rows := [][2]string{
		{"gyms", strconv.Itoa(s.TotalGyms)},
		{"assigned gyms", strconv.Itoa(s.AssignedGyms)},
		{"calls", strconv.Itoa(s.TotalCalls)},
		{"calls today", strconv.Itoa(s.CallsToday)},
		{"follow-ups due", strconv.Itoa(s.FollowUpsDue)},
		{"conversions", strconv.Itoa(s.Conversions)},
	}
	if role == session.RoleManager {
		rows = append(rows,
			[2]string{"telecallers", strconv.Itoa(s.Telecallers)},
			[2]string{"active telecallers", strconv.Itoa(s.ActiveCallers)},
		)
	}

	outcomes := make([]string, 0, len(s.OutcomeCounts))
	for o := range s.OutcomeCounts {
		outcomes = append(outcomes, string(o))
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		rows = append(rows, [2]string{"outcome " + o, strconv.Itoa(s.OutcomeCounts[callcenter.Outcome(o)])})
	}
	return rows
}

func gymRows(gyms []callcenter.Gym) [][]string {
	rows := make([][]string, 0, len(gyms))
	for _, g := range gyms {
		caller := g.TelecallerName
		if caller == "" {
			caller = g.TelecallerID
		}
		last := ""
		if g.LastCalledAt != nil {
			last = formatTime(*g.LastCalledAt)
		}
		rows = append(rows, []string{g.ID, g.Name, g.City, string(g.Status), caller, last})
	}
	return rows
}

func telecallerRows(list []callcenter.Telecaller) [][]string {
	rows := make([][]string, 0, len(list))
	for _, tc := range list {
		active := "no"
		if tc.Active {
			active = "yes"
		}
		rows = append(rows, []string{tc.ID, tc.Name, tc.Mobile, active, strconv.Itoa(tc.AssignedGyms)})
	}
	return rows
}

func followUpRows(list []callcenter.FollowUp) [][]string {
	rows := make([][]string, 0, len(list))
	for _, f := range list {
		gym := f.GymName
		if gym == "" {
			gym = f.GymID
		}
		rows = append(rows, []string{f.ID, f.Date, gym, string(f.Status), f.Remarks})
	}
	return rows
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}
