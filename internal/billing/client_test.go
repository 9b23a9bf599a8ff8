package billing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func planServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/plans/plan_4":
			w.Write([]byte(`{"id": "plan_4", "active": true, "nickname": "Standard"}`))
		case "/plans/plan_404":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": {"message": "No such plan: plan_404"}}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": {"message": "boom"}}`))
		}
	}))
}

func TestGetPlanFound(t *testing.T) {
	srv := planServer(t)
	defer srv.Close()
	c := NewClient(srv.URL, "sk_test")

	plan, err := c.GetPlan(context.Background(), "plan_4")
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if plan == nil || plan.ID != "plan_4" {
		t.Fatalf("plan = %+v", plan)
	}
}

// An unknown plan id must read as a miss so callers can treat it like
// an inactive plan rather than a transport failure.
func TestGetPlanUnknownIDIsAMiss(t *testing.T) {
	srv := planServer(t)
	defer srv.Close()
	c := NewClient(srv.URL, "sk_test")

	plan, err := c.GetPlan(context.Background(), "plan_404")
	if err != nil {
		t.Fatalf("GetPlan on unknown plan: %v", err)
	}
	if plan != nil {
		t.Fatalf("plan = %+v, want nil", plan)
	}
}

func TestGetPlanServerErrorSurfaces(t *testing.T) {
	srv := planServer(t)
	defer srv.Close()
	c := NewClient(srv.URL, "sk_test")

	_, err := c.GetPlan(context.Background(), "plan_boom")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want an API error", err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", apiErr.Status)
	}
}
