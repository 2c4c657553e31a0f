package postgres

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gosuda/auditor/internal/domain"
)

// SQLSTATE codes the repositories react to.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
	codeQueryCanceled       = "57014"
)

// pgErr converts a server-side failure into a *domain.RemoteError carrying
// the SQLSTATE as its code. Errors that did not come from the server are
// returned unchanged.
func pgErr(err error) error {
	if err == nil {
		return nil
	}

	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return &domain.RemoteError{
			Status:  statusForCode(pe.Code),
			Code:    pe.Code,
			Message: pe.Message,
			Cause:   err,
		}
	}

	if pgconn.Timeout(err) {
		return &domain.RemoteError{
			Status:  http.StatusGatewayTimeout,
			Code:    "timeout",
			Message: "database timeout",
			Cause:   err,
		}
	}

	return err
}

func statusForCode(code string) int {
	switch code {
	case codeUniqueViolation:
		return http.StatusConflict
	case codeCheckViolation:
		return http.StatusUnprocessableEntity
	case codeInvalidText:
		return http.StatusBadRequest
	case codeSerialization, codeDeadlock:
		return http.StatusServiceUnavailable
	case codeQueryCanceled:
		return http.StatusGatewayTimeout
	}

	// Class 08 is connection exception, class 53 insufficient resources.
	if strings.HasPrefix(code, "08") || strings.HasPrefix(code, "53") {
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

func isForeignKeyViolation(err error) bool {
	var pe *pgconn.PgError
	return errors.As(err, &pe) && pe.Code == codeForeignKeyViolation
}
