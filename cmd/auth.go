package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/streamsavvy/internal/credentials"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/desertthunder/streamsavvy/internal/state"
	"github.com/urfave/cli/v3"
)

func (r *Runner) writeBreach(report state.BreachReport) error {
	if !report.Breached() {
		return nil
	}
	return r.writePlain("⚠ This password has appeared in %d known data breaches. Consider changing it.\n", report.Count)
}

// AuthSignUp registers a new account and signs it in pending payment.
func (r *Runner) AuthSignUp(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	result, err := r.lifecycle.SignUp(ctx, state.SignUpInput{
		FullName: cmd.String("name"),
		Email:    cmd.String("email"),
		Password: cmd.String("password"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("remote") {
		if _, err := r.custom.RegisterUser(ctx, result.User); err != nil {
			return fmt.Errorf("registered locally but the mock API rejected the user: %w", err)
		}
		r.logger.Info("registered with mock API", "email", result.User.Email)
	}

	r.writePlain("✓ Welcome, %s!\n", result.User.FullName)
	if err := r.writeBreach(result.Breach); err != nil {
		return err
	}
	r.writePlainln("Run 'savvy auth payment' to finish setting up your account.")
	return nil
}

// AuthSignIn authenticates by email and password.
func (r *Runner) AuthSignIn(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	user, err := r.lifecycle.SignIn(ctx, cmd.String("email"), cmd.String("password"))
	if err != nil {
		return err
	}

	r.writePlain("✓ Signed in as %s\n", user.Email)
	if !r.lifecycle.Session().HasCompletedPayment {
		r.writePlain("Payment pending: run 'savvy auth payment'.\n")
	}
	return nil
}

// AuthSignOut clears the session.
func (r *Runner) AuthSignOut(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	r.lifecycle.SignOut()
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus reports the session phase and flags.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	session := r.lifecycle.Session()
	phase := r.lifecycle.Phase()

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"phase":         phase.String(),
			"canAccessHome": r.lifecycle.CanAccessHome(),
			"session":       session,
		}, cmd.Bool("pretty"))
	}

	r.writePlain("Phase: %s\n", phase)
	if user, ok := r.lifecycle.User(); ok {
		r.writePlain("User: %s <%s>\n", user.FullName, user.Email)
	}
	r.writePlain("Signed up: %t\n", session.HasCompletedSignUp)
	r.writePlain("Paid: %t\n", session.HasCompletedPayment)
	r.writePlain("Can access home: %t\n", r.lifecycle.CanAccessHome())
	return nil
}

// AuthPayment marks the signed-up account as paid.
func (r *Runner) AuthPayment(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	if err := r.lifecycle.CompletePayment(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Payment complete. Enjoy StreamSavvy!\n")
}

// AuthProfile updates the signed-in user's name or email.
func (r *Runner) AuthProfile(ctx context.Context, cmd *cli.Command) error {
	var update state.ProfileUpdate
	if cmd.IsSet("name") {
		name := cmd.String("name")
		update.FullName = &name
	}
	if cmd.IsSet("email") {
		email := cmd.String("email")
		update.Email = &email
	}
	if update.FullName == nil && update.Email == nil {
		return fmt.Errorf("%w: pass --name or --email", shared.ErrMissingArgument)
	}

	if err := r.open(); err != nil {
		return err
	}
	user, err := r.lifecycle.UpdateProfile(ctx, update)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Profile updated: %s <%s>\n", user.FullName, user.Email)
}

// AuthPassword changes the signed-in user's password.
func (r *Runner) AuthPassword(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	report, err := r.lifecycle.ChangePassword(ctx, cmd.String("current"), cmd.String("new"))
	if err != nil {
		return err
	}
	r.writePlain("✓ Password changed\n")
	return r.writeBreach(report)
}

// AuthDelete deletes the signed-in account.
func (r *Runner) AuthDelete(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: pass --yes to confirm account deletion", shared.ErrMissingArgument)
	}
	if err := r.open(); err != nil {
		return err
	}
	if err := r.lifecycle.DeleteAccount(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Account deleted\n")
}

// AuthSuggestPassword prints a generated password that satisfies the sign-up rules.
func (r *Runner) AuthSuggestPassword(ctx context.Context, cmd *cli.Command) error {
	pw, err := credentials.Suggest(int(cmd.Int("length")))
	if err != nil {
		return fmt.Errorf("failed to generate password: %w", err)
	}
	return r.writePlain("%s\n", pw)
}
