package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/neonsql/pkg/neonsql"
)

// tokenExpiryWarning is the remaining lifetime below which a warning is logged.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector connects with a short-lived token (AWS IAM, Azure Entra ID)
// used as the PostgreSQL password.
type TokenBasedConnector struct {
	config        *neonsql.ConnectionConfig
	tokenProvider TokenProvider
	providerName  string
	logger        neonsql.Logger
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error and warning messages (e.g. "AWS IAM", "Azure").
func NewTokenBasedConnector(config *neonsql.ConnectionConfig, tokenProvider TokenProvider, providerName string, logger neonsql.Logger) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		providerName:  providerName,
		logger:        logger,
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgx.Conn, error) {
	c.logger.Verbose("Acquiring token from %s", c.tokenProvider)
	token, expiresOn, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s token: %v: %w", c.providerName, err, neonsql.ErrConnectionFailed)
	}

	if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
		c.logger.Info("Warning: %s token expires in %v", c.providerName, remaining.Round(time.Second))
	}

	withToken := *c.config
	withToken.Password = token
	return connect(ctx, &withToken, c.logger)
}
