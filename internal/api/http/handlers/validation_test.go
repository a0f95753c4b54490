package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/request-service/internal/api/dto"
	apperrors "github.com/spec-kit/request-service/pkg/util/errorutil"
)

func validationFailure(t *testing.T, payload any) *apperrors.DomainError {
	t.Helper()
	err := validateStruct(payload)
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Equal(t, apperrors.CodeValidationFailed, de.Code)
	return de
}

func TestValidateRegisterRequest(t *testing.T) {
	valid := dto.RegisterRequest{Email: "a@example.com", Password: "secret1", Name: "Al", Role: "EMPLOYEE"}
	require.NoError(t, validateStruct(&valid))

	cases := []struct {
		name    string
		mutate  func(r *dto.RegisterRequest)
		field   string
		message string
	}{
		{"missing email", func(r *dto.RegisterRequest) { r.Email = "" }, "email", "Email is required"},
		{"bad email", func(r *dto.RegisterRequest) { r.Email = "nope" }, "email", "Please provide a valid email address"},
		{"short password", func(r *dto.RegisterRequest) { r.Password = "12345" }, "password", "Password must be at least 6 characters long"},
		{"short name", func(r *dto.RegisterRequest) { r.Name = "A" }, "name", "Name must be at least 2 characters long"},
		{"bad role", func(r *dto.RegisterRequest) { r.Role = "ADMIN" }, "role", "Role must be either EMPLOYEE or MANAGER"},
		{"bad manager id", func(r *dto.RegisterRequest) { id := "abc"; r.ManagerID = &id }, "managerId", "Manager ID must be a valid UUID"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			de := validationFailure(t, &req)
			assert.Equal(t, tc.message, de.Message)
			assert.Equal(t, tc.message, de.Details[tc.field])
		})
	}
}

func TestValidateCreateRequest(t *testing.T) {
	de := validationFailure(t, &dto.CreateRequestRequest{
		Title:        "Valid title",
		Description:  "too short",
		AssignedToID: "7b0c1c36-6a43-4f57-9d1e-3f3d2f0b9b11",
	})
	assert.Equal(t, "Description must be at least 10 characters long", de.Message)

	de = validationFailure(t, &dto.CreateRequestRequest{Title: "Valid title", Description: "Long enough description"})
	assert.Equal(t, "Assigned user ID is required", de.Message)

	de = validationFailure(t, &dto.CreateRequestRequest{})
	assert.Len(t, de.Details, 3)
	assert.Equal(t, "Title is required", de.Message)
}

func TestBlankManagerIDIsTreatedAsAbsent(t *testing.T) {
	blank := ""
	req := dto.RegisterRequest{Email: "a@example.com", Password: "secret1", Name: "Al", Role: "MANAGER", ManagerID: &blank}
	var n normalizer = &req
	n.Normalize()
	assert.Nil(t, req.ManagerID)
	require.NoError(t, validateStruct(&req))

	spaces := "  "
	assign := dto.AssignManagerRequest{ManagerID: &spaces}
	assign.Normalize()
	assert.Nil(t, assign.ManagerID)
}
