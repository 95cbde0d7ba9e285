package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/career-advisor/internal/logger"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List previous advisor sessions",
	Run: func(_ *cobra.Command, _ []string) {
		sessions()
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

func sessions() {
	ctx := context.Background()
	d := setup()

	list, err := d.advisor.Sessions(ctx)
	if err != nil {
		d.logger.Fatal("listing sessions", zap.Error(err))
	}

	d.logger.Info("advisor sessions", zap.Int("count", len(list)))

	for _, s := range list {
		fields := []zap.Field{
			zap.String(logger.FieldSessionID, s.SessionID),
			zap.Int("messages", s.ConversationLength),
		}
		if !s.CreatedAt.IsZero() {
			fields = append(fields, zap.String("created_at", s.CreatedAt.Local().Format(time.DateTime)))
		}
		d.logger.Info("session", fields...)
	}
}
