package request

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/chronik/internal/domain"
	"github.com/kailas-cloud/chronik/internal/domain/search/entity"
	"github.com/kailas-cloud/chronik/internal/domain/search/query"
)

// Search parameter limits.
const (
	MinQueryLength = 2
	// MaxQueryLength is the maximum allowed search query length in characters.
	MaxQueryLength = 200
	DefaultLimit   = 20
	MinLimit       = 1
	MaxLimit       = 100
)

// Params holds unvalidated search input as it arrives from a transport.
type Params struct {
	Q     string
	Types []string
	// Limit is the raw limit value; empty means DefaultLimit.
	Limit string
}

// ValidationError describes the first rejected search parameter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Unwrap makes errors.Is(err, domain.ErrInvalidQuery) hold.
func (e *ValidationError) Unwrap() error { return domain.ErrInvalidQuery }

// Request is a validated search query.
type Request struct {
	raw       string
	sanitized string
	types     []entity.Type
	limit     int
}

type input struct {
	Q     string   `validate:"required,min=2,max=200"`
	Types []string `validate:"dive,entity_type"`
	Limit int      `validate:"min=1,max=100"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("entity_type", func(fl validator.FieldLevel) bool {
		return entity.Type(fl.Field().String()).IsValid()
	})
	return v
}

// New validates search input. Defaults: all entity types, limit=20.
func New(p Params) (Request, error) {
	in := input{
		Q:     strings.TrimSpace(p.Q),
		Types: p.Types,
		Limit: DefaultLimit,
	}

	badLimit := false
	if s := strings.TrimSpace(p.Limit); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			badLimit = true
		}
		in.Limit = n
	}

	if err := validate.Struct(in); err != nil {
		verr := firstViolation(err)
		if badLimit && verr.Field == "limit" {
			verr.Message = fmt.Sprintf("Limit must be an integer, got %q", p.Limit)
		}
		return Request{}, verr
	}

	types, err := entity.ParseList(in.Types)
	if err != nil {
		return Request{}, &ValidationError{Field: "types", Message: err.Error()}
	}

	return Request{
		raw:       in.Q,
		sanitized: query.Sanitize(in.Q),
		types:     types,
		limit:     in.Limit,
	}, nil
}

// MustNew is New for trusted input; it panics on invalid params.
func MustNew(p Params) Request {
	r, err := New(p)
	if err != nil {
		panic(err)
	}
	return r
}

func firstViolation(err error) *ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: "query", Message: err.Error()}
	}
	fe := verrs[0]
	// Slice element errors are reported as "Types[1]".
	field := fe.StructField()
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}
	switch field {
	case "Q":
		switch fe.Tag() {
		case "required":
			return &ValidationError{Field: "q", Message: "Search query is required"}
		case "min":
			return &ValidationError{Field: "q",
				Message: fmt.Sprintf("Search query must be at least %d characters", MinQueryLength)}
		default:
			return &ValidationError{Field: "q",
				Message: fmt.Sprintf("Search query must be at most %d characters", MaxQueryLength)}
		}
	case "Types":
		return &ValidationError{Field: "types", Message: fmt.Sprintf("Invalid entity type: %q", fe.Value())}
	case "Limit":
		return &ValidationError{Field: "limit",
			Message: fmt.Sprintf("Limit must be between %d and %d", MinLimit, MaxLimit)}
	}
	name := strings.ToLower(field)
	return &ValidationError{Field: name, Message: fmt.Sprintf("Invalid value for %s", name)}
}

// Query returns the trimmed query as typed by the user.
func (r *Request) Query() string { return r.raw }

// Sanitized returns the query with tsquery operators removed.
func (r *Request) Sanitized() string { return r.sanitized }

// Types returns the requested entity types in canonical order.
func (r *Request) Types() []entity.Type { return r.types }

// Limit returns the maximum number of results across all types.
func (r *Request) Limit() int { return r.limit }
