package cli

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/romariotrain/meeting-pipeline/internal/meeting/models"
)

type MeetingService interface {
	Ingest(ctx context.Context, audio []byte, filenameHint string) (models.MeetingRecord, error)
	GetMeeting(ctx context.Context, id uuid.UUID) (models.MeetingRecord, error)
	ListMeetings(ctx context.Context) ([]models.MeetingRecord, error)
	DeleteMeeting(ctx context.Context, id uuid.UUID) error
}

// Dependencies is what the commands run against. Watch is optional; a nil
// Watch makes the watch command fail.
type Dependencies struct {
	Service MeetingService
	Watch   func(ctx context.Context, dir string) error
	Close   func() error
}

// Builder wires Dependencies from the config file named by --config.
type Builder func(ctx context.Context, configPath string) (*Dependencies, error)

func NewRootCmd(build Builder) *cobra.Command {
	var (
		configPath string
		deps       *Dependencies
	)

	rootCmd := &cobra.Command{
		Use:           "meetings",
		Short:         "Ingest meeting recordings and inspect their transcripts and summaries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			d, err := build(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			deps = d
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if deps != nil && deps.Close != nil {
				return deps.Close()
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	get := func() *Dependencies { return deps }

	rootCmd.AddCommand(NewIngestCmd(get))
	rootCmd.AddCommand(NewGetCmd(get))
	rootCmd.AddCommand(NewListCmd(get))
	rootCmd.AddCommand(NewDeleteCmd(get))
	rootCmd.AddCommand(NewWatchCmd(get))

	return rootCmd
}

type depsFunc func() *Dependencies

func parseID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, errors.New("invalid meeting id: " + arg)
	}
	return id, nil
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
