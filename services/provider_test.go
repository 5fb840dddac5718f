package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"nutriscan/config"
	"nutriscan/testutil"
)

func TestProviderBase_AcceptsAny2xx(t *testing.T) {
	srv := testutil.MockHTTPServer(t, http.StatusNonAuthoritativeInfo, `{"items":[{"name":"egg","calories":72}]}`)
	svc := NewCalorieNinjasService(config.ProvidersConfig{CalorieNinjasKey: "key", CalorieNinjasBaseURL: srv.URL}, testTimeout, nil)

	rec, ok := svc.FetchNutrition(context.Background(), "egg")
	testutil.AssertTrue(t, ok)
	testutil.AssertFloat(t, rec.Calories, 72)
}

func TestProviderBase_RejectsNon2xx(t *testing.T) {
	for _, status := range []int{http.StatusMultipleChoices, http.StatusNotFound, http.StatusBadGateway} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := testutil.MockHTTPServer(t, status, `{"items":[{"calories":72}]}`)
			b := newProviderBase("test", srv.URL, 0.5, testTimeout, nil)

			_, err := b.get(context.Background(), srv.URL, nil)
			testutil.AssertError(t, err)
			var perr *ProviderError
			testutil.AssertTrue(t, errors.As(err, &perr))
			testutil.AssertEqual(t, perr.StatusCode, status)
		})
	}
}

func TestProviderBase_OversizedBodyIsDistinctError(t *testing.T) {
	payload := `{"data":"` + strings.Repeat("x", 2048) + `"}`
	srv := testutil.MockHTTPServer(t, http.StatusOK, payload)
	b := newProviderBase("test", srv.URL, 0.5, testTimeout, nil)

	_, err := b.getLimited(context.Background(), srv.URL, nil, 1024)
	testutil.AssertError(t, err)
	testutil.AssertTrue(t, errors.Is(err, ErrResponseTooLarge))
	testutil.AssertTrue(t, !errors.Is(err, ErrMalformedResponse))

	body, err := b.getLimited(context.Background(), srv.URL, nil, int64(len(payload)))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(body), len(payload))
}

func TestOpenFoodFacts_LargeCategoryListing(t *testing.T) {
	const n = 60000
	var sb strings.Builder
	sb.WriteString(`{"count":60000,"tags":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, `{"id":"en:category-%d","name":"Category number %d","products":%d,"url":"https://world.openfoodfacts.org/category/category-%d"}`, i, i, i, i)
	}
	sb.WriteString(`]}`)
	payload := sb.String()
	testutil.AssertTrue(t, int64(len(payload)) > defaultMaxBody)

	srv := testutil.MockHTTPServer(t, http.StatusOK, payload)
	svc := NewOpenFoodFactsService(config.ProvidersConfig{OpenFoodFactsBaseURL: srv.URL}, testTimeout, nil)

	cats := svc.Categories(context.Background())
	testutil.AssertEqual(t, len(cats), n)
	testutil.AssertEqual(t, cats[n-1].ID, fmt.Sprintf("en:category-%d", n-1))
}
