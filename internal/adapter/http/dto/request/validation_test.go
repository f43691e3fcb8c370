package request

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
)

func TestFieldMessages(t *testing.T) {
	RegisterValidation()

	long := strings.Repeat("x", 201)
	err := binding.Validator.ValidateStruct(ServiceCreateRequest{Name: long, Status: "BUSY"})
	if err == nil {
		t.Fatalf("expected validation error")
	}

	fields := FieldMessages(err)
	tests := map[string]string{
		"name":        "length should be less or equal than 200",
		"description": "this field is required",
		"price":       "this field is required",
		"status":      "should have value in: PENDING AVAILABLE",
	}
	for field, want := range tests {
		if fields[field] != want {
			t.Fatalf("field %s: expected %q, got %q (all: %v)", field, want, fields[field], fields)
		}
	}

	if err := binding.Validator.ValidateStruct(PageQuery{Size: 101}); FieldMessages(err)["size"] != "should be less or equal than 100" {
		t.Fatalf("unexpected size message: %v", FieldMessages(err))
	}
	if FieldMessages(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
