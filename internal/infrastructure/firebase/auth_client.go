package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
)

// AuthUser is the subset of a Firebase Auth record the profile sync needs.
type AuthUser struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}

	return result.UID, nil
}

func (f *FirebaseAuthClient) GetUser(ctx context.Context, uid string) (*AuthUser, error) {
	record, err := f.client.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	return &AuthUser{
		UID:         record.UID,
		Email:       record.Email,
		DisplayName: record.DisplayName,
		PhotoURL:    record.PhotoURL,
	}, nil
}

// TestConnection performs a cheap authenticated call against Firebase Auth.
func (f *FirebaseAuthClient) TestConnection(ctx context.Context) error {
	iter := f.client.Users(ctx, "")
	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return fmt.Errorf("firebase auth unreachable: %w", err)
	}
	return nil
}

// CustomToken mints a sign-in token for uid. Clients exchange it for an ID
// token with signInWithCustomToken.
func (f *FirebaseAuthClient) CustomToken(ctx context.Context, uid string, admin bool) (string, error) {
	if !admin {
		return f.client.CustomToken(ctx, uid)
	}
	return f.client.CustomTokenWithClaims(ctx, uid, map[string]interface{}{"admin": true})
}
