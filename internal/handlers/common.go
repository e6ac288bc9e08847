package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

const maxMultipartMemory = 32 << 20

// requireUser returns the authenticated user attached by the auth middleware.
func requireUser(ctx context.Context) (models.User, error) {
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		return models.User{}, apperr.New(apperr.Auth, "unauthorized request")
	}
	return user, nil
}

// parseID validates a path or payload identifier.
func parseID(value, label string) (string, error) {
	if _, err := uuid.Parse(value); err != nil {
		return "", apperr.Newf(apperr.Validation, "invalid %s", label)
	}
	return value, nil
}

// storeError translates repository sentinels into the API error taxonomy.
// Unrecognized errors pass through and surface as internal failures.
func storeError(err error, notFound, conflict string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.Wrap(apperr.NotFound, notFound, err)
	case errors.Is(err, repositories.ErrConflict):
		return apperr.Wrap(apperr.Conflict, conflict, err)
	default:
		return err
	}
}

// pageFromQuery reads offset pagination parameters.
func pageFromQuery(r *http.Request) repositories.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return repositories.Page{
		Number:  page,
		Limit:   limit,
		SortBy:  q.Get("sortBy"),
		SortDir: q.Get("sortType"),
	}
}

// uploadFormFile streams a multipart file field into asset storage under a
// generated key and returns the public location. A missing field is an error
// only when required.
func uploadFormFile(ctx context.Context, storage AssetStorage, r *http.Request, field, prefix string, required bool) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			if required {
				return "", apperr.Newf(apperr.Validation, "%s file is required", field)
			}
			return "", nil
		}
		return "", apperr.Wrap(apperr.Validation, fmt.Sprintf("invalid %s file", field), err)
	}
	defer file.Close()

	key := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), filepath.Ext(header.Filename))
	location, err := storage.Save(ctx, key, file)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", field, err)
	}
	return location, nil
}
