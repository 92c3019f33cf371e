package services

import (
	"testing"
	"time"
)

func TestValidateStakeholderInvitation(t *testing.T) {
	svc := NewInvitationService(newStubStore())

	inv, err := svc.ValidateStakeholder("tok-mgmt")
	if err != nil || !inv.Valid || inv.GroupID != "mgmt" || inv.Redirect == "" {
		t.Fatalf("valid token = %+v, %v", inv, err)
	}
	inv, err = svc.ValidateStakeholder("bogus")
	if err != nil || inv.Valid || inv.Message == "" {
		t.Fatalf("bogus token = %+v, %v", inv, err)
	}
	if _, err := svc.ValidateStakeholder(" "); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestAcceptClientAdminInvite(t *testing.T) {
	store := newStubStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.invites["good"] = &AdminInvite{Token: "good", ClientID: "c1", Email: "boss@example.com", ExpiresAt: now.Add(time.Hour)}
	store.invites["old"] = &AdminInvite{Token: "old", ClientID: "c1", ExpiresAt: now.Add(-time.Hour)}
	svc := NewInvitationService(store)
	svc.now = func() time.Time { return now }

	inv, err := svc.AcceptClientAdmin("good")
	if err != nil || !inv.Valid || inv.Email != "boss@example.com" {
		t.Fatalf("accept = %+v, %v", inv, err)
	}
	if _, err := svc.AcceptClientAdmin("good"); err == nil {
		t.Fatalf("second accept must fail")
	} else if se, _ := AsServiceError(err); se.Code != ErrorConflict {
		t.Fatalf("error = %v, want conflict", err)
	}
	if _, err := svc.AcceptClientAdmin("old"); err == nil {
		t.Fatalf("expired invite must fail")
	}
	if _, err := svc.AcceptClientAdmin("missing"); err == nil {
		t.Fatalf("unknown invite must fail")
	}
}
