package journey_test

import (
	"context"
	"errors"
	"testing"

	"salesavor/internal/gateway"
	"salesavor/internal/journey"
	"salesavor/internal/salesapi"
	"salesavor/internal/services"
)

func withList(t *testing.T) *harness {
	t.Helper()
	h := withRecipes(t)
	if _, err := h.ctrl.ToggleRecipe("r1"); err != nil {
		t.Fatalf("ToggleRecipe returned error: %v", err)
	}
	if _, err := h.ctrl.GenerateGroceryList(context.Background()); err != nil {
		t.Fatalf("GenerateGroceryList returned error: %v", err)
	}
	return h
}

func TestEmailGroceryListPreconditions(t *testing.T) {
	ctx := context.Background()
	h := withRecipes(t)

	if _, err := h.ctrl.EmailGroceryList(ctx); !errors.Is(err, journey.ErrMissingRecipient) {
		t.Fatalf("expected ErrMissingRecipient, got %v", err)
	}
	h.ctrl.SetEmailAddress("sam@example.com")
	if _, err := h.ctrl.EmailGroceryList(ctx); !errors.Is(err, journey.ErrNoList) {
		t.Fatalf("expected ErrNoList, got %v", err)
	}
	if h.api.count(opEmail) != 0 {
		t.Fatal("preconditions must be checked before any network call")
	}
}

func TestEmailGroceryListClearsAddressOnSuccess(t *testing.T) {
	h := withList(t)
	if _, err := h.profiles.Save(context.Background(), salesapi.ProfileData{Name: "Sam"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	s, err := h.ctrl.EmailGroceryListTo(context.Background(), " sam@example.com ")
	if err != nil {
		t.Fatalf("EmailGroceryListTo returned error: %v", err)
	}
	if s.EmailAddress != "" {
		t.Fatalf("expected address cleared, got %q", s.EmailAddress)
	}
	req := h.api.emailReqs[0]
	if req.Email != "sam@example.com" || req.UserName != "Sam" || req.GroceryListData.ID != "g1" {
		t.Fatalf("unexpected email request %+v", req)
	}
}

func TestEmailGroceryListFailureKeepsAddress(t *testing.T) {
	h := withList(t)
	h.api.emailErr = errBoom

	s, err := h.ctrl.EmailGroceryListTo(context.Background(), "sam@example.com")
	if services.Classify(err) != services.FailureTransport {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if s.EmailAddress != "sam@example.com" {
		t.Fatalf("failed send must keep the address, got %q", s.EmailAddress)
	}
	if s.Errors[gateway.ActionEmail] == "" || h.rec.failureCount() != 1 {
		t.Fatalf("expected recorded and notified failure, got %+v", s.Errors)
	}
	if s.GroceryList == nil {
		t.Fatal("failed send must keep the list")
	}
}
