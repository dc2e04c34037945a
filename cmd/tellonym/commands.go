package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-tellonym/internal/config"
	"github.com/tbourn/go-tellonym/internal/discord"
	"github.com/tbourn/go-tellonym/internal/repo"
	"github.com/tbourn/go-tellonym/internal/sysutil"
)

var (
	cfg config.Config
	log zerolog.Logger

	envFile   string
	guildFlag string
)

var rootCmd = &cobra.Command{
	Use:           "tellonym",
	Short:         "Anonymous notes for Discord communities",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		sysutil.SetLogLevel(cfg.LogLevel)
		log = sysutil.NewLogger(os.Stderr, cfg.LogPretty, cfg.OTEL.ServiceName)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactions webhook and the admin API",
	RunE: func(cmd *cobra.Command, args []string) error {
		err := serve(cmd.Context(), cfg, log)
		if err != nil {
			log.Error().Err(err).Msg("serve failed")
		}
		return err
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the configuration tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := repo.OpenSQLite(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := repo.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info().Str("db", cfg.DBPath).Msg("schema up to date")
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register-commands",
	Short: "Publish the slash command set to Discord",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Discord.Token == "" || cfg.Discord.AppID == "" {
			return errors.New("DISCORD_TOKEN and DISCORD_APP_ID are required")
		}
		dc, err := discord.New(cfg.Discord.Token, log)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		guild := sysutil.FirstNonEmpty(guildFlag, cfg.Discord.GuildID)
		n, err := dc.RegisterCommands(ctx, cfg.Discord.AppID, guild)
		if err != nil {
			return fmt.Errorf("register commands: %w", err)
		}
		scope := "global"
		if guild != "" {
			scope = "guild " + guild
		}
		log.Info().Int("count", n).Str("scope", scope).Msg("commands registered")
		return nil
	},
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	registerCmd.Flags().StringVar(&guildFlag, "guild", "", "register in one guild instead of globally (overrides DISCORD_GUILD_ID)")

	rootCmd.AddCommand(serveCmd, migrateCmd, registerCmd)
}
