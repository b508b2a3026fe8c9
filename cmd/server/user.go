package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/rankchat-server/internal/app"
	"github.com/vovakirdan/rankchat-server/internal/auth"
	"github.com/vovakirdan/rankchat-server/internal/store/sqlite"
)

var (
	userName       string
	userCredential string
	userRank       int
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage ranked users",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user with a credential and a rank",
	Example: `  rankchat user add --name bob --credential s3cret --rank 5
  rankchat user add --name alice --credential pw --rank 1 -c /etc/rankchat/config.yaml`,
	RunE: runUserAdd,
}

var userRankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Change the rank of an existing user",
	RunE:  runUserRank,
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd, userRankCmd)

	userAddCmd.Flags().StringVar(&userName, "name", "", "user name (required)")
	userAddCmd.Flags().StringVar(&userCredential, "credential", "", "credential the user will salute with (required)")
	userAddCmd.Flags().IntVar(&userRank, "rank", 0, "numeric rank, higher sees more")
	_ = userAddCmd.MarkFlagRequired("name")
	_ = userAddCmd.MarkFlagRequired("credential")

	userRankCmd.Flags().StringVar(&userName, "name", "", "user name (required)")
	userRankCmd.Flags().IntVar(&userRank, "rank", 0, "new numeric rank")
	_ = userRankCmd.MarkFlagRequired("name")
	_ = userRankCmd.MarkFlagRequired("rank")
}

func runUserAdd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	svc := auth.NewService(st, app.JWTConfig(&cfg))
	user, err := svc.CreateUser(cmd.Context(), userName, userCredential, userRank)
	if err != nil {
		return err
	}

	logger.Info().Int64("id", user.ID).Str("name", user.Name).Int("rank", user.Rank).Msg("user created")
	fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", user.Name, auth.RankName(user.Rank))
	return nil
}

func runUserRank(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	user, err := st.GetUserByName(ctx, userName)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", userName, err)
	}
	if err := st.UpdateUserRank(ctx, user.Name, userRank); err != nil {
		return fmt.Errorf("update rank: %w", err)
	}

	logger.Info().Str("name", user.Name).Int("from", user.Rank).Int("to", userRank).Msg("rank changed")
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Name, auth.RankName(userRank))
	return nil
}
