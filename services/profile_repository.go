package services

import (
	"context"
	"strings"

	apperrors "github.com/fittrack/fittrack/errors"
	"github.com/fittrack/fittrack/types"
	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

const profilesTable = "profiles"

// ProfileRepository reads rows from the profiles table through PostgREST.
type ProfileRepository struct {
	client *supabase.Client
}

func NewProfileRepository(client *supabase.Client) *ProfileRepository {
	return &ProfileRepository{client: client}
}

// GetProfile returns the profile whose id is the auth user's id.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*types.Profile, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperrors.ValidationFailed("Invalid user ID", userID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var profile types.Profile
	_, err := r.client.From(profilesTable).
		Select("*", "", false).
		Eq("id", userID).
		Single().
		ExecuteTo(&profile)
	if err != nil {
		// PGRST116: the single-object request matched no rows.
		if strings.Contains(err.Error(), "PGRST116") {
			return nil, apperrors.NotFound("Profile", userID)
		}
		return nil, apperrors.Wrap(err, apperrors.ProviderError, "Failed to fetch profile")
	}
	return &profile, nil
}
