package model

import "github.com/psds-microservice/crm-service/internal/record"

// BudgetRange is the numeric interpretation of a ticket's budget label.
type BudgetRange struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Average int `json:"average"`
}

var budgetTable = map[string]BudgetRange{
	"€500-1000":  {Min: 500, Max: 1000, Average: 750},
	"€1000-3000": {Min: 1000, Max: 3000, Average: 2000},
	"€3000-5000": {Min: 3000, Max: 5000, Average: 4000},
	"€5000+":     {Min: 5000, Max: 10000, Average: 7500},
}

// BudgetLabels lists the accepted budget labels, cheapest first.
var BudgetLabels = []string{"€500-1000", "€1000-3000", "€3000-5000", "€5000+"}

// ParseBudget maps a budget label to its range. Unknown labels map to the
// zero range.
func ParseBudget(label string) BudgetRange {
	return budgetTable[label]
}

// MonthlyRevenue estimates revenue as the sum of the average budget of
// every completed ticket.
func MonthlyRevenue(tickets []Ticket) int {
	total := 0
	for _, t := range tickets {
		if t.Status == TicketStatusCompleted {
			total += ParseBudget(t.Budget).Average
		}
	}
	return total
}

// TicketStats extends the generic aggregate with the revenue estimate.
type TicketStats struct {
	record.Stats[TicketStatus]
	Urgent  int `json:"urgent"`
	Revenue int `json:"revenue"`
}

func AggregateTickets(tickets []Ticket) TicketStats {
	st := TicketStats{
		Stats:   record.Aggregate(tickets, TicketStatuses),
		Revenue: MonthlyRevenue(tickets),
	}
	for _, t := range tickets {
		if t.Urgent() {
			st.Urgent++
		}
	}
	return st
}

// Overview is the admin dashboard header.
type Overview struct {
	ActiveClients  int `json:"active_clients"`
	PendingTickets int `json:"pending_tickets"`
	Revenue        int `json:"revenue"`
}

func NewOverview(clients []Client, tickets []Ticket) Overview {
	o := Overview{ActiveClients: len(clients), Revenue: MonthlyRevenue(tickets)}
	for _, t := range tickets {
		if t.Status == TicketStatusOpen {
			o.PendingTickets++
		}
	}
	return o
}
