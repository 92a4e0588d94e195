package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"linguapath/internal/app"
	"linguapath/internal/repository"
	"linguapath/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Email every learner a summary of their last week",
		Long: `Computes each learner's statistics and the number of days in the last week
on which they met their daily goal, then sends them through Amazon SES.
Nothing is sent when SES_FROM_EMAIL is empty.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			env, err := app.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			cfg, logger := env.Config, env.Logger
			users := repository.NewUserRepository(env.DB)
			stats := service.NewStatsService(repository.NewStudyRepository(env.DB), cfg.Location(), logger)

			mailer, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.EmailDebug, logger)
			if err != nil {
				return err
			}
			digests := service.NewDigestService(users, stats, mailer, logger)

			if dryRun {
				recipients, err := users.ListWithEmail(ctx)
				if err != nil {
					return err
				}
				for _, user := range recipients {
					digest, err := digests.Build(ctx, user)
					if err != nil {
						return err
					}
					logger.WithFields(logrus.Fields{
						"user":       user.AuthSubject,
						"email":      user.Email,
						"streak":     digest.Stats.DaysStreak,
						"lastWeek":   digest.Stats.LastWeekMinutes,
						"daysOnGoal": digest.DaysOnGoal,
					}).Info("Digest (dry run)")
				}
				return nil
			}

			_, err = digests.Run(ctx)
			return err
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "build the digests and log them without sending")
	return cmd
}
