package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

const defaultDBSecretID = "customer-order/DB_CREDENTIALS"

// DBCredentials is the JSON shape of the database secret. Empty fields fall
// back to the corresponding environment values.
type DBCredentials struct {
	User     string `json:"POSTGRES_USER"`
	Password string `json:"POSTGRES_PASSWORD"`
	Database string `json:"POSTGRES_DB"`
	Host     string `json:"POSTGRES_HOST"`
	Port     string `json:"POSTGRES_PORT"`
}

// SecretsClient resolves this service's secrets from AWS Secrets Manager.
// The secret is read once at startup, so there is no caching layer.
type SecretsClient struct {
	client     *secretsmanager.Client
	dbSecretID string
}

func NewSecretsClient(cfg sdkaws.Config) *SecretsClient {
	secretID := os.Getenv("DB_CREDENTIALS_SECRET_ID")
	if secretID == "" {
		secretID = defaultDBSecretID
	}
	return &SecretsClient{
		client:     secretsmanager.NewFromConfig(cfg),
		dbSecretID: secretID,
	}
}

// DBCredentials fetches and decodes the database credentials secret.
func (s *SecretsClient) DBCredentials(ctx context.Context) (*DBCredentials, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &s.dbSecretID})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret %s: %w", s.dbSecretID, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", s.dbSecretID)
	}
	return parseDBCredentials([]byte(*out.SecretString))
}

func parseDBCredentials(raw []byte) (*DBCredentials, error) {
	var creds DBCredentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("failed to decode db credentials secret: %w", err)
	}
	return &creds, nil
}
