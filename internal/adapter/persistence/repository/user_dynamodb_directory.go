package repository

import (
	"context"
	"log"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type userItem struct {
	ID    string `dynamodbav:"id"`
	Name  string `dynamodbav:"name"`
	Email string `dynamodbav:"email"`
	Role  string `dynamodbav:"role"`
}

// UserDynamoDirectory reads identities from the users table, which is owned
// by the identity service. Stored roles may use the legacy spanish names.
//
// Table requirements:
//   - PK: id (string)
type UserDynamoDirectory struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IUserDirectory = (*UserDynamoDirectory)(nil)

func NewUserDynamoDirectory(ddb *dynamodb.Client, tableName string) *UserDynamoDirectory {
	return &UserDynamoDirectory{ddb: ddb, tableName: tableName}
}

func (d *UserDynamoDirectory) GetByID(ctx context.Context, id string) (entities.User, error) {
	out, err := d.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       idKey(id),
	})
	if err != nil {
		return entities.User{}, err
	}
	if len(out.Item) == 0 {
		return entities.User{}, nil
	}

	var it userItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.User{}, err
	}
	return fromUserItem(it), nil
}

// fromUserItem leaves Role empty for unknown roles so the user can never
// authenticate as anything.
func fromUserItem(it userItem) entities.User {
	u := entities.User{ID: it.ID, Name: it.Name, Email: it.Email}
	if role, ok := entities.ParseRole(it.Role); ok {
		u.Role = role
	} else {
		log.Printf("[user][dynamodb] unknown role user_id=%s role=%q", it.ID, it.Role)
	}
	return u
}
