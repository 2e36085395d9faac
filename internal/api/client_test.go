package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginReturnsTokenAndUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "jane@example.com", body["email"])

		json.NewEncoder(w).Encode(map[string]any{
			"token": "tok-abc",
			"user":  map[string]any{"id": 7, "full_name": "Jane Doe", "email": "jane@example.com"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Login(context.Background(), "jane@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", res.Token)
	assert.Equal(t, "Jane Doe", res.User.FullName)
}

func TestAuthenticatedRequestsSendBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]any{"id": 1, "full_name": "Jane", "email": "j@x.com"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithTokenSource(func() string { return "tok-xyz" }))
	_, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-xyz", gotAuth)
}

func TestUnauthorizedMapsToErrUnauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "token expired"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthenticated))
	assert.Equal(t, KindUnauthenticated, Classify(err))
}

func TestServerRejectionKeepsVerbatimMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "age must be between 18 and 120"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.CreateAssessment(context.Background(), map[string]string{"age": "999"})
	require.Error(t, err)

	var se *ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Status)
	assert.Equal(t, "age must be between 18 and 120", se.Message)
	assert.Equal(t, KindServerRejected, Classify(err))
}

func TestNetworkFailureClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := New(srv.URL, WithGetRetries(1, time.Millisecond))
	_, err := c.ListAssessments(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindNetworkUnavailable, Classify(err))
}

func TestIdempotentGetRetriesTransientServerError(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"assessment": map[string]any{"assessment_id": "42", "assessment_data": map[string]string{}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithGetRetries(3, time.Millisecond))
	got, err := c.GetAssessment(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", got.AssessmentID)
	assert.Equal(t, int64(2), calls.Load())
}

func TestUnauthenticatedGetIsNotRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, WithGetRetries(3, time.Millisecond))
	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

func TestCreateAssessmentIsNeverRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, WithGetRetries(3, time.Millisecond))
	_, err := c.CreateAssessment(context.Background(), map[string]string{"age": "45"})
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

func TestListAssessmentsDecodesHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"assessments": []map[string]any{
				{"assessment_id": "b", "created_at": "2026-02-01T10:00:00Z"},
				{"assessment_id": "a", "created_at": "2026-01-01T10:00:00Z"},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	list, err := c.ListAssessments(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].AssessmentID)
}
