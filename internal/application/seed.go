package application

import (
	"context"
	"fmt"

	"github.com/psds-microservice/crm-service/internal/model"
	"gorm.io/datatypes"
)

// SeedResult counts what Seed created.
type SeedResult struct {
	Clients  int
	Tickets  int
	Requests int
}

type sampleTicket struct {
	client int
	ticket model.Ticket
}

func sampleClients() []model.Client {
	return []model.Client{
		model.NewClient("Mario Rossi", "mario.rossi@azienda.com", "Azienda SRL", "+39 123 456 7890"),
		model.NewClient("Giulia Bianchi", "giulia.bianchi@startup.it", "Startup Innovativa", "+39 098 765 4321"),
	}
}

func sampleTickets() []sampleTicket {
	return []sampleTicket{
		{client: 0, ticket: model.Ticket{
			Title:        "Sito Web Aziendale",
			Type:         model.ProjectWebsite,
			Description:  "Creazione di un sito web moderno per la nostra azienda con sezioni per prodotti, servizi e contatti.",
			Budget:       "€1000-3000",
			Priority:     model.PriorityNormal,
			DeliveryDate: "2024-02-15",
			Status:       model.TicketStatusInProgress,
			Files:        datatypes.JSONSlice[string]{"logo.png", "brand-guidelines.pdf"},
		}},
		{client: 1, ticket: model.Ticket{
			Title:        "Chatbot Customer Service",
			Type:         model.ProjectChatbot,
			Description:  "Sviluppo di un chatbot intelligente per il supporto clienti 24/7.",
			Budget:       "€3000-5000",
			Priority:     model.PriorityUrgent,
			DeliveryDate: "2024-01-30",
			Status:       model.TicketStatusOpen,
			Files:        datatypes.JSONSlice[string]{"requirements.docx"},
		}},
		{client: 0, ticket: model.Ticket{
			Title:        "App Mobile E-commerce",
			Type:         model.ProjectMobileApp,
			Description:  "Sviluppo di un'app mobile per e-commerce con funzionalità di pagamento e gestione ordini.",
			Budget:       "€5000+",
			Priority:     model.PriorityNormal,
			DeliveryDate: "2024-03-15",
			Status:       model.TicketStatusCompleted,
			Files:        datatypes.JSONSlice[string]{"design-mockups.zip", "api-docs.pdf"},
		}},
	}
}

func sampleRequests() [][4]string {
	return [][4]string{
		{"Luca Verdi", "luca.verdi@studio.it", "Preventivo sito", "Vorrei un preventivo per un sito vetrina con blog."},
		{"Sara Neri", "sara.neri@negozio.it", "Automazione ordini", "Cerchiamo un sistema per automatizzare gli ordini dal sito."},
	}
}

// Seed fills an empty store with sample clients, tickets and contact
// requests. It does nothing when tickets or clients already exist.
func Seed(ctx context.Context, svc *Services) (SeedResult, error) {
	var res SeedResult
	existing, err := svc.Tickets.Clients(ctx)
	if err != nil {
		return res, err
	}
	if len(existing) > 0 || len(svc.Tickets.Records()) > 0 {
		return res, nil
	}

	clients := sampleClients()
	for i, c := range clients {
		saved, err := svc.Tickets.AddClient(ctx, c)
		if err != nil {
			return res, fmt.Errorf("seed client %s: %w", c.Name, err)
		}
		clients[i] = saved
		res.Clients++
	}
	for _, s := range sampleTickets() {
		t := s.ticket
		t.ClientID = clients[s.client].ID
		if _, err := svc.Tickets.Create(ctx, t); err != nil {
			return res, fmt.Errorf("seed ticket %s: %w", t.Title, err)
		}
		res.Tickets++
	}
	for _, r := range sampleRequests() {
		if _, err := svc.Requests.Submit(ctx, r[0], r[1], r[2], r[3]); err != nil {
			return res, fmt.Errorf("seed request %s: %w", r[2], err)
		}
		res.Requests++
	}
	return res, nil
}
