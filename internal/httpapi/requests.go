package httpapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Allliance/content-rating/internal/apierr"
)

var validate = validator.New()

// validateStruct runs go-playground/validator over req and translates a
// failure into apierr.Validation — a typed field-presence check instead of
// the source's dynamic request-body field access (§9).
func validateStruct(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		return apierr.Validationf("%s", err.Error())
	}
	return nil
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=150"`
	Password string `json:"password" validate:"required,min=8"`
}

// TokenRequest is the body of POST /auth/token.
type TokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the body of POST /auth/token/refresh.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// CreateContentRequest is the body of POST /contents/create.
type CreateContentRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Text  string `json:"text"`
}

// RateContentRequest is the body of POST /contents/rate (§4.5's
// {content_id, rating} typed input record).
type RateContentRequest struct {
	ContentID int64 `json:"content_id" validate:"required"`
	Rating    *int  `json:"rating" validate:"required"`
}

// listQuery parses and defaults the listing endpoint's query parameters
// (§4.7): sort_by, order, page.
func listQuery(r *http.Request) (sortBy string, desc bool, page int) {
	q := r.URL.Query()

	sortBy = q.Get("sort_by")
	switch sortBy {
	case "rating_count", "rating_average", "created_at":
	default:
		sortBy = "created_at"
	}

	desc = q.Get("order") != "asc"

	page = 1
	if p := q.Get("page"); p != "" {
		if n, err := parsePositiveInt(p); err == nil {
			page = n
		}
	}
	return sortBy, desc, page
}

func parsePositiveInt(s string) (int, error) {
	var n int
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, apierr.Validationf("page must be a positive integer")
		}
		n = n*10 + int(c-'0')
	}
	if n <= 0 {
		return 0, apierr.Validationf("page must be a positive integer")
	}
	return n, nil
}
