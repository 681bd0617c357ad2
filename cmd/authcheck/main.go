package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fittrack/fittrack/config"
	"github.com/fittrack/fittrack/internal/auth"
	"github.com/fittrack/fittrack/internal/store"
	"github.com/fittrack/fittrack/logger"
	"github.com/fittrack/fittrack/services"
	"github.com/fittrack/fittrack/types"
	"github.com/supabase-community/supabase-go"
)

// authcheck signs in against the configured project and prints every auth
// state the store publishes along the way.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	email := os.Getenv("AUTHCHECK_EMAIL")
	password := os.Getenv("AUTHCHECK_PASSWORD")
	if email == "" || password == "" {
		log.Fatalf("AUTHCHECK_EMAIL and AUTHCHECK_PASSWORD environment variables are required")
	}

	client, err := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, &supabase.ClientOptions{})
	if err != nil {
		log.Fatalf("Failed to create Supabase client: %v", err)
	}
	provider := services.NewAuthProvider(client, store.NewMemorySessionStore(), services.AuthProviderConfig{
		URL:     cfg.Supabase.URL,
		AnonKey: cfg.Supabase.AnonKey,
	})

	authStore := auth.NewStore(provider, services.NewProfileRepository(client))
	defer authStore.Close()

	published := make(chan types.AuthState, 16)
	unsubscribe := authStore.Subscribe(func(state types.AuthState) {
		select {
		case published <- state:
		default:
		}
	})
	defer unsubscribe()

	fmt.Println("🧪 Checking auth flow against", cfg.Supabase.URL)
	fmt.Println(strings.Repeat("=", 50))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	steps := []struct {
		name string
		run  func() error
	}{
		{"Initialize", func() error { return authStore.Initialize(ctx) }},
		{"Sign in with password", func() error {
			_, err := authStore.SignInWithPassword(ctx, email, password)
			return err
		}},
		{"Sign out", func() error { return authStore.SignOut(ctx) }},
	}

	for i, step := range steps {
		fmt.Printf("\n%d. %s\n", i+1, step.name)
		if err := step.run(); err != nil {
			fmt.Printf("   ❌ Error: %v\n", err)
			os.Exit(1)
		}
		// Give the provider event time to resolve its profile.
		time.Sleep(500 * time.Millisecond)
		drain(published)
	}

	fmt.Println("\n🎯 Auth check complete")
}

func drain(published <-chan types.AuthState) {
	for {
		select {
		case state := <-published:
			describe(state)
		default:
			return
		}
	}
}

func describe(state types.AuthState) {
	switch {
	case state.Loading:
		fmt.Println("   ⏳ loading")
	case state.User == nil:
		fmt.Println("   ⚪ signed out")
	case state.Profile == nil:
		fmt.Printf("   ⚠️  signed in as %s without a profile\n", logger.MaskEmail(state.User.Email))
	default:
		fmt.Printf("   ✅ signed in as %s (%s)\n", logger.MaskEmail(state.User.Email), state.Profile.Name())
	}
}
