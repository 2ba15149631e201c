package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"tech-insights/internal/errors"
	"tech-insights/internal/services"
)

var cacheHeaders = map[string]string{
	"Cache-Control": "public, max-age=300",
}

// chartQuery holds the query parameters shared by the data endpoints.
type chartQuery struct {
	States []string `validate:"dive,len=2,alpha,uppercase"`
	Limit  int      `validate:"min=1,max=50"`
	Bins   int      `validate:"min=1,max=100"`
}

func splitStates(raw string) []string {
	var states []string
	for _, part := range strings.Split(raw, ",") {
		if st := strings.TrimSpace(part); st != "" {
			states = append(states, st)
		}
	}
	return states
}

func parseChartQuery(r *http.Request, validate *validator.Validate) (chartQuery, error) {
	q := r.URL.Query()
	cq := chartQuery{
		States: splitStates(q.Get("states")),
		Limit:  services.DefaultTopCategories,
		Bins:   services.DefaultHistogramBins,
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return cq, errors.ValidationWrap(err, "limit must be an integer")
		}
		cq.Limit = n
	}
	if raw := q.Get("bins"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return cq, errors.ValidationWrap(err, "bins must be an integer")
		}
		cq.Bins = n
	}

	if err := validate.Struct(cq); err != nil {
		return cq, errors.ValidationWrap(err, "Invalid query parameters")
	}
	return cq, nil
}

func validateStates(validate *validator.Validate, states []string) error {
	if err := validate.Var(states, "dive,len=2,alpha,uppercase"); err != nil {
		return errors.ValidationWrap(err, "states must be two-letter uppercase codes")
	}
	return nil
}
