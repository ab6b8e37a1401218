package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fastygo/dailywork/domain"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateTaskRequest struct {
	ProjectID    string `json:"project_id" validate:"required,max=64"`
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description" validate:"max=4000"`
	StartTime    string `json:"start_time"`
	FinishTime   string `json:"finish_time"`
	ParentTaskID string `json:"parent_task_id" validate:"max=64"`
}

// UpdateTaskRequest distinguishes an absent field (nil) from an empty one.
type UpdateTaskRequest struct {
	Title            *string `json:"title" validate:"omitempty,max=200"`
	Description      *string `json:"description" validate:"omitempty,max=4000"`
	AssigneeID       *string `json:"assignee_id" validate:"omitempty,max=64"`
	StartTime        *string `json:"start_time"`
	FinishTime       *string `json:"finish_time"`
	ParentTaskID     *string `json:"parent_task_id" validate:"omitempty,max=64"`
	MoveWithChildren bool    `json:"move_with_children"`
}

// Decode unmarshals body into v and validates its tags. Failures are
// ValidationFaults naming the first offending field.
func Decode(body []byte, v interface{}) error {
	if len(body) == 0 {
		return domain.ValidationFault("request body is required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return domain.WrapError(domain.ErrCodeInvalid, "malformed JSON body", err)
	}
	return Validate(v)
}

func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return domain.ValidationFault(fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
	}
	return domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err)
}
