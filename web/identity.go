package web

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/idtoken"
)

// Identity is the external identity provider.
type Identity interface {
	// AuthCodeURL returns the consent page URL carrying state.
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the user's email and credentials.
	Exchange(ctx context.Context, code string) (Session, error)
}

// Google is the Google Identity provider. It asks for the drive.file scope,
// and for offline access so that the token can be refreshed.
type Google struct {
	config *oauth2.Config
}

// NewGoogle returns the Google identity of the OAuth client clientID.
func NewGoogle(clientID, clientSecret, redirectURL string) *Google {
	return &Google{config: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile", drive.DriveFileScope},
	}}
}

// Config returns the OAuth configuration, used to refresh tokens.
func (g *Google) Config() *oauth2.Config { return g.config }

func (g *Google) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange implements Identity. The ID token is verified against the client ID.
func (g *Google) Exchange(ctx context.Context, code string) (Session, error) {
	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return Session{}, fmt.Errorf("cannot exchange code: %w", err)
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok {
		return Session{}, errors.New("no id_token in the token response")
	}
	payload, err := idtoken.Validate(ctx, raw, g.config.ClientID)
	if err != nil {
		return Session{}, fmt.Errorf("invalid id_token: %w", err)
	}
	email, _ := payload.Claims["email"].(string)
	if verified, _ := payload.Claims["email_verified"].(bool); email == "" || !verified {
		return Session{}, errors.New("no verified email in id_token")
	}
	return Session{Email: email, Token: tok}, nil
}
