package handlers

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin/binding"

	"newsletter-go/internal/models"
)

// decodeForm parses an application/x-www-form-urlencoded body. Pairs are
// split on '&' only, so a raw ';' is data. An empty body yields an empty map.
func decodeForm(body []byte) (url.Values, error) {
	values := make(url.Values)
	for _, pair := range strings.Split(string(body), "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("malformed form body: %w", err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("malformed form body: %w", err)
		}
		values[key] = append(values[key], value)
	}
	return values, nil
}

// bindSubscription maps decoded form values onto a request and checks that
// name and email each appear exactly once with a non-empty value.
func bindSubscription(values url.Values) (*models.SubscriptionRequest, error) {
	for _, field := range []string{"name", "email"} {
		if len(values[field]) > 1 {
			return nil, fmt.Errorf("duplicate field %q", field)
		}
	}

	var req models.SubscriptionRequest
	if err := binding.MapFormWithTag(&req, values, "form"); err != nil {
		return nil, fmt.Errorf("map form: %w", err)
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}
