package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"serviexpress/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	attrID      = "id"
	attrVersion = "version"

	requestsServiceIDIndex = "service_id-index"
	paymentsRequestIDIndex = "request_id-index"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrID: &types.AttributeValueMemberS{Value: id},
	}
}

// versionedUpdate builds an UpdateItem that rewrites every attribute of item
// except the key, removes the optional attributes item does not carry and
// only applies while the stored version equals expected. The new version
// is expected+1.
func versionedUpdate(table string, item map[string]types.AttributeValue, expected int64, optional ...string) *dynamodb.UpdateItemInput {
	id := item[attrID]
	names := map[string]string{"#id": attrID, "#version": attrVersion}
	values := map[string]types.AttributeValue{
		":expected_version": &types.AttributeValueMemberN{Value: strconv.FormatInt(expected, 10)},
		":next_version":     &types.AttributeValueMemberN{Value: strconv.FormatInt(expected+1, 10)},
	}

	keys := make([]string, 0, len(item))
	for k := range item {
		if k == attrID || k == attrVersion {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := []string{"#version = :next_version"}
	for i, k := range keys {
		n, v := fmt.Sprintf("#a%d", i), fmt.Sprintf(":v%d", i)
		names[n] = k
		values[v] = item[k]
		sets = append(sets, n+" = "+v)
	}
	expr := "SET " + strings.Join(sets, ", ")

	var removes []string
	for i, k := range optional {
		if _, ok := item[k]; ok {
			continue
		}
		n := fmt.Sprintf("#r%d", i)
		names[n] = k
		removes = append(removes, n)
	}
	if len(removes) > 0 {
		expr += " REMOVE " + strings.Join(removes, ", ")
	}

	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       map[string]types.AttributeValue{attrID: id},
		ConditionExpression:       aws.String("attribute_exists(#id) AND #version = :expected_version"),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}
}

// asTransactUpdate wraps an UpdateItem for use in TransactWriteItems.
func asTransactUpdate(in *dynamodb.UpdateItemInput) types.TransactWriteItem {
	return types.TransactWriteItem{Update: &types.Update{
		TableName:                 in.TableName,
		Key:                       in.Key,
		ConditionExpression:       in.ConditionExpression,
		UpdateExpression:          in.UpdateExpression,
		ExpressionAttributeNames:  in.ExpressionAttributeNames,
		ExpressionAttributeValues: in.ExpressionAttributeValues,
	}}
}

func isConditionalCheckFailed(err error) bool {
	var cfe *types.ConditionalCheckFailedException
	return errors.As(err, &cfe)
}

// isTransactionConflict reports a cancelled transaction whose reasons are
// condition failures or concurrent transactions on the same items.
func isTransactionConflict(err error) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		var conflict *types.TransactionConflictException
		return errors.As(err, &conflict)
	}
	for _, r := range tce.CancellationReasons {
		switch aws.ToString(r.Code) {
		case "ConditionalCheckFailed", "TransactionConflict":
			return true
		}
	}
	return false
}

// staleOr maps conditional failures to interfaces.ErrStaleWrite.
func staleOr(err error) error {
	if err == nil {
		return nil
	}
	if isConditionalCheckFailed(err) || isTransactionConflict(err) {
		return interfaces.ErrStaleWrite
	}
	return err
}

// scanAll walks every page of a Scan. filter may be empty.
func scanAll(
	ctx context.Context,
	ddb *dynamodb.Client,
	table string,
	filter string,
	names map[string]string,
	values map[string]types.AttributeValue,
) ([]map[string]types.AttributeValue, error) {
	in := &dynamodb.ScanInput{TableName: aws.String(table)}
	if filter != "" {
		in.FilterExpression = aws.String(filter)
		in.ExpressionAttributeNames = names
		in.ExpressionAttributeValues = values
	}

	var items []map[string]types.AttributeValue
	p := dynamodb.NewScanPaginator(ddb, in)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
	}
	return items, nil
}

// andFilter joins non-empty filter clauses.
func andFilter(clauses ...string) string {
	kept := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if c != "" {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, " AND ")
}
