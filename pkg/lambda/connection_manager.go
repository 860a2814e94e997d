package lambda

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"pos-engine/internal/config"
	"pos-engine/pkg/server"
)

// ConnectionManager keeps one container warm across Lambda invocations
type ConnectionManager struct {
	container *server.Container
	lastUsed  time.Time
	mu        sync.Mutex
	load      func() (*config.Config, error)
}

var (
	globalConnectionManager *ConnectionManager
	connectionManagerOnce   sync.Once
)

// GetConnectionManager returns the global connection manager instance
func GetConnectionManager() *ConnectionManager {
	connectionManagerOnce.Do(func() {
		globalConnectionManager = NewConnectionManager(config.Load)
	})
	return globalConnectionManager
}

// NewConnectionManager creates a connection manager that builds its
// container from load on first use
func NewConnectionManager(load func() (*config.Config, error)) *ConnectionManager {
	return &ConnectionManager{load: load}
}

// GetContainer returns the container, initializing it on first use. A failed
// initialization is retried on the next call.
func (cm *ConnectionManager) GetContainer() (*server.Container, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container == nil {
		cfg, err := cm.load()
		if err != nil {
			return nil, err
		}
		container, err := server.NewContainer(cfg)
		if err != nil {
			return nil, err
		}
		cm.container = container
	}

	cm.lastUsed = time.Now()
	return cm.container, nil
}

// Handle serves one API Gateway event on the container's router
func (cm *ConnectionManager) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	container, err := cm.GetContainer()
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: 500,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"error":"internal_error","message":"service unavailable"}`,
		}, err
	}
	return Serve(ctx, container.Router(), event)
}

// IsHealthy reports whether a container is initialized and was used recently
func (cm *ConnectionManager) IsHealthy() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.container != nil && time.Since(cm.lastUsed) < 5*time.Minute
}

// Cleanup closes the container
func (cm *ConnectionManager) Cleanup() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container == nil {
		return nil
	}
	err := cm.container.Close()
	cm.container = nil
	return err
}
