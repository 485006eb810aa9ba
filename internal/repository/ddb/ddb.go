// Package ddb implements the repository interface using AWS DynamoDB.
// This is the only layer that should have knowledge of DynamoDB specifics.
package ddb

import (
	"context"
	"fmt"

	"pitchstat-backend/internal/repository"
	appErrors "pitchstat-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ddbSession represents the structure of a session item in DynamoDB.
type ddbSession struct {
	PK          string  `dynamodbav:"PK"`
	SK          string  `dynamodbav:"SK"`
	SessionID   string  `dynamodbav:"SessionId"`
	SessionName *string `dynamodbav:"SessionName,omitempty"`
	StartedAt   *string `dynamodbav:"StartedAt,omitempty"`
	CreatedAt   string  `dynamodbav:"CreatedAt"`
	PitchCount  int     `dynamodbav:"PitchCount"`
	Strikes     *int    `dynamodbav:"Strikes,omitempty"`
	Balls       *int    `dynamodbav:"Balls,omitempty"`
	Heatmap     *string `dynamodbav:"Heatmap,omitempty"`
	Raw         string  `dynamodbav:"Raw"`
}

// ddbPitch represents the structure of a pitch item in DynamoDB.
type ddbPitch struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	SessionID string `dynamodbav:"SessionId"`
	PitchID   string `dynamodbav:"PitchId"`

	Speed    *float64 `dynamodbav:"Speed,omitempty"`
	Run      *float64 `dynamodbav:"Run,omitempty"`
	Rise     *float64 `dynamodbav:"Rise,omitempty"`
	Zone     *int     `dynamodbav:"Zone,omitempty"`
	ZoneRow  *int     `dynamodbav:"ZoneRow,omitempty"`
	ZoneCol  *int     `dynamodbav:"ZoneCol,omitempty"`
	IsStrike *bool    `dynamodbav:"IsStrike,omitempty"`

	RotationRPM    *float64 `dynamodbav:"RotationRpm,omitempty"`
	SpinAxis       *float64 `dynamodbav:"SpinAxis,omitempty"`
	SpinEfficiency *float64 `dynamodbav:"SpinEfficiency,omitempty"`
	Confidence     *float64 `dynamodbav:"Confidence,omitempty"`
	PlateX         *float64 `dynamodbav:"PlateX,omitempty"`
	PlateZ         *float64 `dynamodbav:"PlateZ,omitempty"`
	ReleaseHeight  *float64 `dynamodbav:"ReleaseHeight,omitempty"`
	ReleaseSide    *float64 `dynamodbav:"ReleaseSide,omitempty"`
	Extension      *float64 `dynamodbav:"Extension,omitempty"`

	Raw string `dynamodbav:"Raw"`
}

// ddbRepository is the concrete implementation for DynamoDB.
type ddbRepository struct {
	provider      *ClientProvider
	sessionsTable string
	pitchesTable  string
}

// NewRepository creates a new instance of the DynamoDB repository. The client
// is obtained lazily from the provider on first operation.
func NewRepository(provider *ClientProvider, sessionsTable, pitchesTable string) repository.Repository {
	return &ddbRepository{
		provider:      provider,
		sessionsTable: sessionsTable,
		pitchesTable:  pitchesTable,
	}
}

// UpsertSession writes or replaces the session record.
func (r *ddbRepository) UpsertSession(ctx context.Context, record repository.SessionRecord) error {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}

	item, err := attributevalue.MarshalMap(ddbSession{
		PK:          record.UserID,
		SK:          record.SessionKey,
		SessionID:   record.SessionID,
		SessionName: record.SessionName,
		StartedAt:   record.StartedAt,
		CreatedAt:   record.CreatedAt,
		PitchCount:  record.PitchCount,
		Strikes:     record.Strikes,
		Balls:       record.Balls,
		Heatmap:     record.Heatmap,
		Raw:         record.Raw,
	})
	if err != nil {
		return appErrors.Wrap(err, "failed to marshal session item")
	}

	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.sessionsTable),
		Item:      item,
	})
	if err != nil {
		return appErrors.Wrap(err, "failed to upsert session item")
	}
	return nil
}

// GetSession fetches one session record by its partition and row key.
func (r *ddbRepository) GetSession(ctx context.Context, userID, sessionKey string) (*repository.SessionRecord, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.sessionsTable),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userID},
			"SK": &types.AttributeValueMemberS{Value: sessionKey},
		},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to get session item")
	}
	if len(out.Item) == 0 {
		return nil, appErrors.NewNotFound("session not found")
	}

	var item ddbSession
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, appErrors.Wrap(err, "failed to unmarshal session item")
	}
	record := toSessionRecord(item)
	return &record, nil
}

// ListSessions returns every session record in the identity's partition.
func (r *ddbRepository) ListSessions(ctx context.Context, userID string) ([]repository.SessionRecord, error) {
	items, err := r.queryPartition(ctx, r.sessionsTable, userID)
	if err != nil {
		return nil, err
	}

	records := make([]repository.SessionRecord, 0, len(items))
	for _, raw := range items {
		var item ddbSession
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, appErrors.Wrap(err, "failed to unmarshal session item")
		}
		records = append(records, toSessionRecord(item))
	}
	return records, nil
}

// DeleteSession removes the session record. Absent records are ignored.
func (r *ddbRepository) DeleteSession(ctx context.Context, userID, sessionKey string) error {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}

	_, err = client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.sessionsTable),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userID},
			"SK": &types.AttributeValueMemberS{Value: sessionKey},
		},
	})
	if err != nil {
		return appErrors.Wrap(err, "failed to delete session item")
	}
	return nil
}

// PutPitchBatch writes one atomic transaction of pitch records.
func (r *ddbRepository) PutPitchBatch(ctx context.Context, records []repository.PitchRecord) error {
	if len(records) == 0 {
		return nil
	}
	if len(records) > repository.MaxBatchOperations {
		return appErrors.NewInternal(
			fmt.Sprintf("pitch batch of %d exceeds the %d operation ceiling", len(records), repository.MaxBatchOperations), nil)
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}

	transactItems := make([]types.TransactWriteItem, 0, len(records))
	for _, record := range records {
		item, err := attributevalue.MarshalMap(toDDBPitch(record))
		if err != nil {
			return appErrors.Wrap(err, "failed to marshal pitch item")
		}
		transactItems = append(transactItems, types.TransactWriteItem{
			Put: &types.Put{TableName: aws.String(r.pitchesTable), Item: item},
		})
	}

	_, err = client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		return appErrors.Wrap(err, "pitch batch transaction failed")
	}
	return nil
}

// ListPitches returns every pitch record in the session's partition.
func (r *ddbRepository) ListPitches(ctx context.Context, sessionKey string) ([]repository.PitchRecord, error) {
	items, err := r.queryPartition(ctx, r.pitchesTable, sessionKey)
	if err != nil {
		return nil, err
	}

	records := make([]repository.PitchRecord, 0, len(items))
	for _, raw := range items {
		var item ddbPitch
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, appErrors.Wrap(err, "failed to unmarshal pitch item")
		}
		records = append(records, toPitchRecord(item))
	}
	return records, nil
}

// queryPartition pages through every item whose partition key equals the
// given value. The value arrives allow-list checked; quotes are doubled
// before it is used in the key condition.
func (r *ddbRepository) queryPartition(ctx context.Context, table, partition string) ([]map[string]types.AttributeValue, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}

	keyCond := expression.Key("PK").Equal(expression.Value(repository.EscapeQuotes(partition)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to build partition query")
	}

	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	for {
		out, err := client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(table),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, appErrors.Wrap(err, "partition query failed")
		}
		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return items, nil
}

func toSessionRecord(item ddbSession) repository.SessionRecord {
	return repository.SessionRecord{
		UserID:      item.PK,
		SessionKey:  item.SK,
		SessionID:   item.SessionID,
		SessionName: item.SessionName,
		StartedAt:   item.StartedAt,
		CreatedAt:   item.CreatedAt,
		PitchCount:  item.PitchCount,
		Strikes:     item.Strikes,
		Balls:       item.Balls,
		Heatmap:     item.Heatmap,
		Raw:         item.Raw,
	}
}

func toDDBPitch(record repository.PitchRecord) ddbPitch {
	return ddbPitch{
		PK:             record.SessionKey,
		SK:             record.PitchKey,
		SessionID:      record.SessionID,
		PitchID:        record.PitchID,
		Speed:          record.Speed,
		Run:            record.Run,
		Rise:           record.Rise,
		Zone:           record.Zone,
		ZoneRow:        record.ZoneRow,
		ZoneCol:        record.ZoneCol,
		IsStrike:       record.IsStrike,
		RotationRPM:    record.RotationRPM,
		SpinAxis:       record.SpinAxis,
		SpinEfficiency: record.SpinEfficiency,
		Confidence:     record.Confidence,
		PlateX:         record.PlateX,
		PlateZ:         record.PlateZ,
		ReleaseHeight:  record.ReleaseHeight,
		ReleaseSide:    record.ReleaseSide,
		Extension:      record.Extension,
		Raw:            record.Raw,
	}
}

func toPitchRecord(item ddbPitch) repository.PitchRecord {
	return repository.PitchRecord{
		SessionKey:     item.PK,
		PitchKey:       item.SK,
		SessionID:      item.SessionID,
		PitchID:        item.PitchID,
		Speed:          item.Speed,
		Run:            item.Run,
		Rise:           item.Rise,
		Zone:           item.Zone,
		ZoneRow:        item.ZoneRow,
		ZoneCol:        item.ZoneCol,
		IsStrike:       item.IsStrike,
		RotationRPM:    item.RotationRPM,
		SpinAxis:       item.SpinAxis,
		SpinEfficiency: item.SpinEfficiency,
		Confidence:     item.Confidence,
		PlateX:         item.PlateX,
		PlateZ:         item.PlateZ,
		ReleaseHeight:  item.ReleaseHeight,
		ReleaseSide:    item.ReleaseSide,
		Extension:      item.Extension,
		Raw:            item.Raw,
	}
}
