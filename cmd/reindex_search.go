package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/psds-microservice/crm-service/internal/application"
	"github.com/psds-microservice/crm-service/internal/clock"
	"github.com/psds-microservice/crm-service/internal/kafka"
	"github.com/psds-microservice/crm-service/internal/logging"
	"github.com/psds-microservice/crm-service/internal/model"
	"github.com/psds-microservice/crm-service/internal/searchindex"
	"github.com/psds-microservice/crm-service/internal/service"
	"github.com/psds-microservice/crm-service/internal/store"
	"github.com/spf13/cobra"
)

var reindexSearchCmd = &cobra.Command{
	Use:   "reindex-search",
	Short: "Reindex all requests and tickets. Prefers Kafka; falls back to HTTP if SEARCH_SERVICE_URL is set.",
	Args:  cobra.NoArgs,
	RunE:  runReindexSearch,
}

func init() {
	rootCmd.AddCommand(reindexSearchCmd)
}

func runReindexSearch(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(commandContext(cmd), 10*time.Minute)
	defer cancel()

	st, err := application.OpenStores(ctx, cfg, clock.Real(), false)
	if err != nil {
		return err
	}
	defer st.Close()

	docs, err := collectDocuments(ctx, st)
	if err != nil {
		return err
	}
	log.Info(ctx, "reindex-search: collected documents", "count", len(docs))

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	defer producer.Close()
	if producer.Enabled() {
		for i, d := range docs {
			producer.Produce(ctx, d.Kind+".reindexed", map[string]any{
				"kind":       d.Kind,
				"id":         d.ID,
				"status":     d.Status,
				"text":       d.Text,
				"updated_at": d.UpdatedAt,
			})
			logProgress(ctx, log, "sent to kafka", i, len(docs))
		}
		log.Info(ctx, "reindex-search: done, search-service worker will index the events", "count", len(docs))
		return nil
	}

	client := searchindex.NewClient(cfg.SearchServiceURL, log)
	if client.Enabled() {
		failed := 0
		for i, d := range docs {
			if err := client.Index(ctx, d); err != nil {
				failed++
				log.Warn(ctx, "reindex-search: index failed", "kind", d.Kind, "id", d.ID, "error", err)
			}
			logProgress(ctx, log, "indexed", i, len(docs))
		}
		if failed > 0 {
			return fmt.Errorf("reindex-search: %d of %d documents failed", failed, len(docs))
		}
		log.Info(ctx, "reindex-search: done via HTTP", "count", len(docs))
		return nil
	}

	log.Warn(ctx, "reindex-search: neither KAFKA_BROKERS nor SEARCH_SERVICE_URL set, nothing reindexed", "count", len(docs))
	return nil
}

// collectDocuments reads every stored request and ticket.
func collectDocuments(ctx context.Context, st *application.Stores) ([]searchindex.Document, error) {
	requests, err := st.Requests.List(ctx, store.Query[model.RequestStatus]{})
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	tickets, err := st.Tickets.List(ctx, store.Query[model.TicketStatus]{})
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	docs := make([]searchindex.Document, 0, len(requests.Records)+len(tickets.Records))
	for _, r := range requests.Records {
		docs = append(docs, service.SearchDocument[model.RequestStatus](service.KindRequest, r))
	}
	for _, t := range tickets.Records {
		docs = append(docs, service.SearchDocument[model.TicketStatus](service.KindTicket, t))
	}
	return docs, nil
}

func logProgress(ctx context.Context, log logging.Logger, what string, i, total int) {
	if (i+1)%50 == 0 || i == total-1 {
		log.Info(ctx, "reindex-search: "+what, "done", i+1, "total", total)
	}
}
