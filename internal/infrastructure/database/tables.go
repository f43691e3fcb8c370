package database

import (
	"context"
	"errors"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableNames are the physical names of the catalog tables.
type TableNames struct {
	Services string
	Requests string
	Users    string
	Payments string
}

// CatalogTables describes every table the catalog store reads or writes.
// All tables are keyed by a string id; requests and payments carry the
// reverse indexes used for counting and listing.
func CatalogTables(names TableNames) []*dynamodb.CreateTableInput {
	return []*dynamodb.CreateTableInput{
		tableWithIndex(names.Services, ""),
		tableWithIndex(names.Requests, "service_id"),
		tableWithIndex(names.Users, ""),
		tableWithIndex(names.Payments, "request_id"),
	}
}

// EnsureTables creates missing tables. It is meant for local DynamoDB;
// existing tables are left untouched.
func EnsureTables(ctx context.Context, ddb *dynamodb.Client, names TableNames) error {
	for _, in := range CatalogTables(names) {
		_, err := ddb.CreateTable(ctx, in)
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			continue
		}
		if err != nil {
			return err
		}
		log.Printf("[database] table created name=%s", aws.ToString(in.TableName))
	}
	return nil
}

func tableWithIndex(name, indexKey string) *dynamodb.CreateTableInput {
	in := &dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
	}
	if indexKey == "" {
		return in
	}

	in.AttributeDefinitions = append(in.AttributeDefinitions, types.AttributeDefinition{
		AttributeName: aws.String(indexKey),
		AttributeType: types.ScalarAttributeTypeS,
	})
	in.GlobalSecondaryIndexes = []types.GlobalSecondaryIndex{{
		IndexName: aws.String(indexKey + "-index"),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(indexKey), KeyType: types.KeyTypeHash},
		},
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}}
	return in
}
