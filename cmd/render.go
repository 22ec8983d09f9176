package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/psds-microservice/crm-service/internal/model"
	"github.com/psds-microservice/crm-service/internal/record"
	"github.com/psds-microservice/crm-service/internal/service"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = cellStyle.Foreground(lipgloss.Color("8"))
)

// statusColors uses the 16-color ANSI palette so output stays readable on
// light and dark terminals.
var statusColors = map[string]lipgloss.Color{
	"new":         lipgloss.Color("12"),
	"read":        lipgloss.Color("8"),
	"open":        lipgloss.Color("12"),
	"in_progress": lipgloss.Color("11"),
	"completed":   lipgloss.Color("10"),
	"rejected":    lipgloss.Color("9"),
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers(headers...)
}

// statusColumn styles cells of column col by their status text.
func statusColumn(rows [][]string, col int) func(row, c int) lipgloss.Style {
	return func(row, c int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if c == col && row >= 0 && row < len(rows) {
			if color, ok := statusColors[rows[row][c]]; ok {
				return cellStyle.Foreground(color)
			}
		}
		if c == 0 {
			return dimStyle
		}
		return cellStyle
	}
}

func renderRequests(w io.Writer, requests []model.ContactRequest) {
	rows := make([][]string, 0, len(requests))
	for _, r := range requests {
		rows = append(rows, []string{
			r.ID, string(r.Status), r.Name, r.Email, truncate(r.Subject, 40), r.CreatedAt.Format(time.DateTime),
		})
	}
	t := newTable("ID", "STATUS", "NAME", "EMAIL", "SUBJECT", "CREATED").
		Rows(rows...).
		StyleFunc(statusColumn(rows, 1))
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d request(s)\n", len(requests))
}

func renderTickets(w io.Writer, tickets []model.Ticket) {
	rows := make([][]string, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, []string{
			t.ID, string(t.Status), string(t.Priority), string(t.Type), truncate(t.Title, 40), t.Budget, t.DeliveryDate,
		})
	}
	t := newTable("ID", "STATUS", "PRIORITY", "TYPE", "TITLE", "BUDGET", "DELIVERY").
		Rows(rows...).
		StyleFunc(statusColumn(rows, 1))
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d ticket(s)\n", len(tickets))
}

func renderClients(w io.Writer, clients []model.ClientSummary) {
	rows := make([][]string, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, []string{
			c.Client.ID, c.Client.Name, c.Client.Company, c.Client.Email,
			strconv.Itoa(c.Open), strconv.Itoa(c.Completed), strconv.Itoa(c.Total),
		})
	}
	t := newTable("ID", "NAME", "COMPANY", "EMAIL", "OPEN", "DONE", "TOTAL").
		Rows(rows...).
		StyleFunc(statusColumn(rows, -1))
	fmt.Fprintln(w, t.Render())
}

// renderStats prints the status counts followed by the monthly histogram.
func renderStats[S record.Status](w io.Writer, st record.Stats[S], statuses []S, extra ...[2]string) {
	rows := [][]string{{"total", strconv.Itoa(st.Total)}}
	for _, s := range statuses {
		rows = append(rows, []string{string(s), strconv.Itoa(st.ByStatus[s])})
	}
	for _, e := range extra {
		rows = append(rows, []string{e[0], e[1]})
	}
	fmt.Fprintln(w, newTable("STATUS", "COUNT").Rows(rows...).StyleFunc(statusColumn(rows, 0)).Render())

	months := make([]string, len(st.ByMonth))
	for i, n := range st.ByMonth {
		months[i] = strconv.Itoa(n)
	}
	fmt.Fprintln(w, newTable(record.MonthLabels[:]...).Row(months...).Render())
}

func renderRequestStats(w io.Writer, st service.RequestStats) {
	renderStats(w, st.Stats, model.RequestStatuses, [2]string{"unread", strconv.Itoa(st.Unread)})
}

func renderTicketStats(w io.Writer, st model.TicketStats) {
	renderStats(w, st.Stats, model.TicketStatuses,
		[2]string{"urgent", strconv.Itoa(st.Urgent)},
		[2]string{"revenue", "€" + strconv.Itoa(st.Revenue)},
	)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
