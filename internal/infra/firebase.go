// README: Firebase Admin SDK initialisation and token verifier for the back-office.
package infra

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Identity is the verified caller behind a Firebase ID token.
type Identity struct {
	UID  string
	Role string
}

// TokenVerifier verifies a raw Firebase ID token string.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Identity, error)
}

type firebaseVerifier struct {
	client *auth.Client
}

// NewFirebaseVerifier creates a TokenVerifier using the Firebase Admin SDK.
// If credentialsFile is empty, application-default credentials are used.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (TokenVerifier, error) {
	opts := []option.ClientOption{}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase app.Auth: %w", err)
	}
	return &firebaseVerifier{client: client}, nil
}

func (v *firebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	id := &Identity{UID: token.UID}
	// Back-office staff carry a custom "role" claim set by the admin tooling.
	if role, ok := token.Claims["role"].(string); ok {
		id.Role = role
	}
	return id, nil
}

var errAuthDisabled = errors.New("auth is not configured")

type denyAllVerifier struct{}

// NewDenyAllVerifier rejects every token; used when Firebase is not configured.
func NewDenyAllVerifier() TokenVerifier { return denyAllVerifier{} }

func (denyAllVerifier) VerifyIDToken(context.Context, string) (*Identity, error) {
	return nil, errAuthDisabled
}
