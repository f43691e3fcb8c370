package repository

import (
	"errors"
	"strings"
	"testing"
	"time"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestVersionedUpdate(t *testing.T) {
	req := entities.Request{
		ID:        "r1",
		ServiceID: "s1",
		ClientID:  "c1",
		Status:    entities.RequestStatusPaymentAccepted,
		PaymentID: "mp-1",
		Version:   4,
	}
	repo := NewRequestDynamoRepository(nil, "service_requests", "services")
	in, err := repo.updateInput(req)
	require.NoError(t, err)

	require.Equal(t, "service_requests", aws.ToString(in.TableName))
	require.Equal(t, &types.AttributeValueMemberS{Value: "r1"}, in.Key["id"])
	require.Equal(t, "attribute_exists(#id) AND #version = :expected_version", aws.ToString(in.ConditionExpression))
	require.Equal(t, &types.AttributeValueMemberN{Value: "4"}, in.ExpressionAttributeValues[":expected_version"])
	require.Equal(t, &types.AttributeValueMemberN{Value: "5"}, in.ExpressionAttributeValues[":next_version"])

	expr := aws.ToString(in.UpdateExpression)
	require.True(t, strings.HasPrefix(expr, "SET #version = :next_version"), expr)
	require.Contains(t, expr, " REMOVE ")

	var setNames, removed []string
	for placeholder, name := range in.ExpressionAttributeNames {
		switch {
		case strings.HasPrefix(placeholder, "#a"):
			setNames = append(setNames, name)
		case strings.HasPrefix(placeholder, "#r"):
			removed = append(removed, name)
		}
	}
	require.NotContains(t, setNames, "id")
	require.NotContains(t, setNames, "service_id")
	require.Contains(t, setNames, "payment_id")
	require.ElementsMatch(t, []string{"details", "delivery_address", "estimated_date"}, removed)
}

func TestStaleOr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"conditional check", &types.ConditionalCheckFailedException{Message: aws.String("x")}, interfaces.ErrStaleWrite},
		{"cancelled on condition", &types.TransactionCanceledException{
			CancellationReasons: []types.CancellationReason{{Code: aws.String("None")}, {Code: aws.String("ConditionalCheckFailed")}},
		}, interfaces.ErrStaleWrite},
		{"transaction conflict", &types.TransactionConflictException{}, interfaces.ErrStaleWrite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, staleOr(tt.err), tt.want)
		})
	}

	t.Run("other failures pass through", func(t *testing.T) {
		boom := errors.New("throttled")
		require.Equal(t, boom, staleOr(boom))

		capacity := &types.TransactionCanceledException{
			CancellationReasons: []types.CancellationReason{{Code: aws.String("ThrottlingError")}},
		}
		require.NotErrorIs(t, staleOr(capacity), interfaces.ErrStaleWrite)
	})
}

func TestServiceItemRoundTrip(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := entities.Service{
		ID:          "s1",
		Name:        "Garden Care",
		Description: "Weekly",
		Price:       decimal.RequireFromString("1234.50"),
		Status:      entities.ServiceStatusBusy,
		ProviderID:  "p1",
		ClaimedBy:   "r1",
		Version:     3,
		CreatedAt:   created,
		UpdatedAt:   created,
	}

	it := toServiceItem(svc)
	require.Equal(t, "garden care", it.NameLower)

	av, err := attributevalue.MarshalMap(it)
	require.NoError(t, err)
	_, hasClient := av["client_id"]
	require.False(t, hasClient, "empty optional attributes are omitted")

	var back serviceItem
	require.NoError(t, attributevalue.UnmarshalMap(av, &back))
	got := fromServiceItem(back)
	require.True(t, svc.Price.Equal(got.Price))
	got.Price = svc.Price
	require.Equal(t, svc, got)
}

func TestRequestItemEstimatedDate(t *testing.T) {
	when := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	req := entities.Request{ID: "r1", ServiceID: "s1", EstimatedDate: &when}

	got := fromRequestItem(toRequestItem(req))
	require.NotNil(t, got.EstimatedDate)
	require.True(t, when.Equal(*got.EstimatedDate))

	req.EstimatedDate = nil
	require.Nil(t, fromRequestItem(toRequestItem(req)).EstimatedDate)
}

func TestServiceScanFilter(t *testing.T) {
	expr, names, values := serviceScanFilter(entities.ServiceFilter{})
	require.Empty(t, expr)
	require.Empty(t, names)
	require.Empty(t, values)

	expr, names, values = serviceScanFilter(entities.ServiceFilter{
		Status:       entities.ServiceStatusAvailable,
		ProviderID:   "p1",
		NameContains: " Garden ",
	})
	require.Equal(t, "#status = :status AND #provider_id = :provider_id AND contains(#name_lower, :name_lower)", expr)
	require.Equal(t, "name_lower", names["#name_lower"])
	require.Equal(t, &types.AttributeValueMemberS{Value: "garden"}, values[":name_lower"])
}

func TestFromUserItem(t *testing.T) {
	require.Equal(t, entities.RoleProvider, fromUserItem(userItem{ID: "u1", Role: "PROVEEDOR"}).Role)
	require.Equal(t, entities.RoleClient, fromUserItem(userItem{ID: "u2", Role: "ROLE_CLIENTE"}).Role)
	require.Empty(t, fromUserItem(userItem{ID: "u3", Role: "ROOT"}).Role)
}

func TestTransitionItems(t *testing.T) {
	requests := NewRequestDynamoRepository(nil, "service_requests", "services")
	services := NewServiceDynamoRepository(nil, "services")
	store := NewTransitionDynamoStore(nil, requests, services)

	req := entities.Request{ID: "r1", ServiceID: "s1", Status: entities.RequestStatusPaymentAccepted, Version: 2}
	svc := entities.Service{ID: "s1", Status: entities.ServiceStatusBusy, ClaimedBy: "r1", Version: 7, Price: decimal.NewFromInt(10)}

	items, err := store.transactItems(req, &svc)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "service_requests", aws.ToString(items[0].Update.TableName))
	require.Equal(t, "services", aws.ToString(items[1].Update.TableName))
	require.Equal(t, &types.AttributeValueMemberN{Value: "7"}, items[1].Update.ExpressionAttributeValues[":expected_version"])

	items, err = store.transactItems(req, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestRequestDeleteItems(t *testing.T) {
	repo := NewRequestDynamoRepository(nil, "service_requests", "services")

	items := repo.deleteItems("s1", "r1", 3)
	require.Len(t, items, 2)

	del := items[0].Delete
	require.NotNil(t, del)
	require.Equal(t, "service_requests", aws.ToString(del.TableName))
	require.Equal(t, "attribute_exists(#id) AND #version = :expected_version", aws.ToString(del.ConditionExpression))
	require.Equal(t, &types.AttributeValueMemberN{Value: "3"}, del.ExpressionAttributeValues[":expected_version"])

	count := items[1].Update
	require.NotNil(t, count)
	require.Equal(t, "services", aws.ToString(count.TableName))
	require.Equal(t, &types.AttributeValueMemberN{Value: "-1"}, count.ExpressionAttributeValues[":delta"])
}
