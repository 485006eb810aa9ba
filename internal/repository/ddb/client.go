package ddb

import (
	"context"
	"errors"
	"sync"

	appErrors "pitchstat-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ClientProvider hands out a shared DynamoDB client, created on first use.
// Concurrent first calls converge on the same handle; the tables are created
// if they do not exist yet. Initialization failure is cached like success so
// every caller sees the same diagnostic.
type ClientProvider struct {
	region        string
	endpoint      string
	sessionsTable string
	pitchesTable  string

	once   sync.Once
	client *dynamodb.Client
	err    error
}

// NewClientProvider creates a provider for the given region and tables.
// An empty endpoint uses the default AWS resolution; a non-empty one points
// the client at a local or alternative deployment.
func NewClientProvider(region, endpoint, sessionsTable, pitchesTable string) *ClientProvider {
	return &ClientProvider{
		region:        region,
		endpoint:      endpoint,
		sessionsTable: sessionsTable,
		pitchesTable:  pitchesTable,
	}
}

// Client returns the shared DynamoDB client, initializing it exactly once.
func (p *ClientProvider) Client(ctx context.Context) (*dynamodb.Client, error) {
	p.once.Do(func() {
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(p.region))
		if err != nil {
			p.err = appErrors.NewInternal("unable to load AWS SDK config", err)
			return
		}

		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if p.endpoint != "" {
				o.BaseEndpoint = aws.String(p.endpoint)
			}
		})

		for _, table := range []string{p.sessionsTable, p.pitchesTable} {
			if err := ensureTable(ctx, client, table); err != nil {
				p.err = appErrors.Wrap(err, "unable to ensure table "+table)
				return
			}
		}
		p.client = client
	})
	return p.client, p.err
}

// ensureTable creates a PK/SK table, tolerating a concurrent or prior creator.
func ensureTable(ctx context.Context, client *dynamodb.Client, name string) error {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("SK"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("PK"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("SK"), KeyType: types.KeyTypeRange},
		},
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return nil
		}
		return err
	}
	return nil
}
