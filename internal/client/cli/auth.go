package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ontop/internal/common"
)

func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter display name (optional)", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	if _, err := a.session.Register(ctx, email, password, name); err != nil {
		if errors.Is(err, common.ErrUnavailable) {
			return fmt.Errorf("registration needs a connection to the server: %w", err)
		}
		return err
	}

	printlnFn("Registered and logged in.")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	s, err := a.session.Login(ctx, email, password)
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Welcome, %s!", s.User.DisplayName))
	return nil
}

// Logout wipes the session and the cached records. Queued changes stay and
// are delivered if the same user logs in again.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	printlnFn("Logged out.")
	return nil
}
