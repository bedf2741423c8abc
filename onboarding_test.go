package materna

import (
	"context"
	"testing"
)

func TestOnboardingFlagLifecycle(t *testing.T) {
	gw := &mockGateway{}
	client := newTestClient(t, gw, nil)
	ctx := context.Background()

	if client.HasCompletedOnboarding(ctx) {
		t.Fatal("fresh install must report onboarding incomplete")
	}

	if err := client.SetOnboardingCompleted(ctx); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if !client.HasCompletedOnboarding(ctx) {
		t.Fatal("expected onboarding complete after setting flag")
	}
}

func TestOnboardingFlagSetOnLoginAndClearedByLogout(t *testing.T) {
	gw := &mockGateway{}
	client := newTestClient(t, gw, nil)
	ctx := context.Background()

	authenticate(t, client, gw)
	if !client.HasCompletedOnboarding(ctx) {
		t.Fatal("expected onboarding flag set by login")
	}

	if err := client.Logout(ctx); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if client.HasCompletedOnboarding(ctx) {
		t.Fatal("logout wipe must clear the onboarding flag, sending the next user through onboarding")
	}
}
