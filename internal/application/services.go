package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/psds-microservice/crm-service/internal/attachments"
	"github.com/psds-microservice/crm-service/internal/clock"
	"github.com/psds-microservice/crm-service/internal/config"
	"github.com/psds-microservice/crm-service/internal/kafka"
	"github.com/psds-microservice/crm-service/internal/logging"
	"github.com/psds-microservice/crm-service/internal/searchindex"
	"github.com/psds-microservice/crm-service/internal/service"
)

// Services holds the loaded desks and their side channels.
type Services struct {
	Requests *service.Requests
	Tickets  *service.Tickets

	producer *kafka.Producer
}

// NewServices builds both desks over st and loads them from the store.
func NewServices(ctx context.Context, cfg *config.Config, st *Stores, clk clock.Clock, log logging.Logger) (*Services, error) {
	deps := service.Deps{
		Clock:     clk,
		Logger:    log,
		NoticeTTL: cfg.NoticeTTL,
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	if producer.Enabled() {
		deps.Events = producer
		log.Info(ctx, "kafka events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	if idx := searchindex.NewClient(cfg.SearchServiceURL, log); idx.Enabled() {
		deps.Index = idx
		log.Info(ctx, "search indexing enabled", "url", cfg.SearchServiceURL)
	}

	var files attachments.Uploader
	up, err := attachments.NewS3Uploader(ctx, attachments.Config{
		Bucket:    cfg.S3.Bucket,
		Region:    cfg.S3.Region,
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
	})
	switch {
	case err == nil:
		files = up
		log.Info(ctx, "attachments enabled", "bucket", cfg.S3.Bucket)
	case errors.Is(err, attachments.ErrDisabled):
	default:
		_ = producer.Close()
		return nil, err
	}

	s := &Services{
		Requests: service.NewRequests(st.Requests, deps),
		Tickets:  service.NewTickets(st.Tickets, st.Clients, files, deps),
		producer: producer,
	}
	if err := s.Requests.Load(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("load requests: %w", err)
	}
	if err := s.Tickets.Load(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("load tickets: %w", err)
	}
	return s, nil
}

// Close waits for in-flight events, then closes the producer.
func (s *Services) Close() {
	s.Requests.Close()
	s.Tickets.Close()
	_ = s.producer.Close()
}
