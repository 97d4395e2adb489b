package main

import (
	"context"
	"fmt"

	"github.com/phrazzld/scry-study/internal/service/auth"
	"github.com/urfave/cli/v3"
)

func (rt *runtime) tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Issue an API token for --user, signed with auth.jwt_secret",
		Action: func(ctx context.Context, _ *cli.Command) error {
			userID, err := rt.userID()
			if err != nil {
				return err
			}
			if rt.cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret is not configured (set SCRY_AUTH_JWT_SECRET)")
			}

			jwtService, err := auth.NewJWTService(rt.cfg.Auth)
			if err != nil {
				return err
			}
			token, err := jwtService.GenerateToken(ctx, userID)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			_, _ = fmt.Fprintln(rt.out, token)
			return nil
		},
	}
}
