package kafka

import (
	"time"

	"github.com/OliveiraNt/infralens/internal/config"
	"github.com/OliveiraNt/infralens/internal/domain"
)

// Factory creates Kafka clients from configuration.
type Factory struct{}

// NewFactory creates a new client factory.
func NewFactory() *Factory {
	return &Factory{}
}

// CreateClient creates a new Kafka client from configuration.
func (f *Factory) CreateClient(cfg config.ClusterConfig, requestTimeout time.Duration) (domain.BrokerClient, error) {
	client, err := NewClient(cfg, requestTimeout)
	if err != nil {
		return nil, err
	}
	return client, nil
}
