// Package dynamo implements store.Store on a DynamoDB table.
package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/typerush/textsvc/pkg/models"
	"github.com/typerush/textsvc/pkg/store"
)

// Config holds the connection settings for the text table.
type Config struct {
	Region string
	Table  string
	// MaxAttempts bounds retries of throttled or transient scan calls.
	MaxAttempts int
	MaxBackoff  time.Duration
}

// Store scans a DynamoDB table partitioned by type tag and length.
type Store struct {
	client dynamodb.ScanAPIClient
	table  string
}

// New loads the default AWS credential chain and returns a Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryer(func() aws.Retryer {
			return retry.NewStandard(func(o *retry.StandardOptions) {
				if cfg.MaxAttempts > 0 {
					o.MaxAttempts = cfg.MaxAttempts
				}
				if cfg.MaxBackoff > 0 {
					o.MaxBackoff = cfg.MaxBackoff
				}
			})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithClient(dynamodb.NewFromConfig(awsCfg), cfg.Table), nil
}

// NewWithClient wraps an existing scan client.
func NewWithClient(client dynamodb.ScanAPIClient, table string) *Store {
	return &Store{client: client, table: table}
}

// Scan runs a filtered full-table scan and concatenates every page in
// arrival order.
func (s *Store) Scan(ctx context.Context, f store.Filter) ([]models.TextItem, error) {
	input, err := scanInput(s.table, f)
	if err != nil {
		return nil, fmt.Errorf("build scan: %w", err)
	}

	items := []models.TextItem{}
	p := dynamodb.NewScanPaginator(s.client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: scan %s: %w", store.ErrBackendUnavailable, s.table, err)
		}

		var rows []models.TextItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &rows); err != nil {
			return nil, fmt.Errorf("%w: decode page: %w", store.ErrBackendUnavailable, err)
		}
		for i := range rows {
			rows[i].Type = f.Type
		}
		items = append(items, rows...)
	}
	return items, nil
}

func scanInput(table string, f store.Filter) (*dynamodb.ScanInput, error) {
	cond := expression.Name("type").Equal(expression.Value(f.Type))
	proj := expression.NamesList(expression.Name("content"))
	if f.Length > 0 {
		cond = cond.And(expression.Name("length").Equal(expression.Value(f.Length)))
		proj = proj.AddNames(expression.Name("length"))
	}

	expr, err := expression.NewBuilder().WithFilter(cond).WithProjection(proj).Build()
	if err != nil {
		return nil, err
	}

	return &dynamodb.ScanInput{
		TableName:                 aws.String(table),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, nil
}
