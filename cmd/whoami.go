package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/career-advisor/internal/identity"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the portal user and whether the advisor is available",
	Run: func(_ *cobra.Command, _ []string) {
		whoami()
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func whoami() {
	ctx := context.Background()
	d := setup()

	status, err := d.advisor.Health(ctx)
	if err != nil {
		d.logger.Fatal("backend is not reachable", zap.Error(err), zap.String("url", d.portal.BaseURL))
	}

	user, err := d.authority.CurrentUser(ctx)
	if err != nil {
		d.logger.Fatal("getting current user", zap.Error(err))
	}

	if user == nil {
		d.logger.Info("not logged in", zap.String("backend", status))
		return
	}

	d.logger.Info("logged in",
		zap.String("backend", status),
		zap.String("name", user.Name),
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)),
		zap.Bool("advisor_available", identity.Visible(ctx, d.authority)),
	)
}
