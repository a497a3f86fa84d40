package handler

import "github.com/sweetshop/sweetshop-api/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Field order matches the order in which problems are reported.
type registerRequest struct {
	EmailID   string `json:"emailId"   validate:"required,email"`
	Password  string `json:"password"  validate:"required,strongpassword"`
	FirstName string `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string `json:"lastName"  validate:"required,min=2,max=50"`
}

type loginRequest struct {
	EmailID  string `json:"emailId"  validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}
