package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/romariotrain/meeting-pipeline/internal/meeting/models"
	"github.com/romariotrain/meeting-pipeline/internal/meeting/service"
)

func NewIngestCmd(deps depsFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <audio-file>",
		Short: "Store, transcribe and summarize one recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read audio: %w", err)
			}

			rec, err := deps().Service.Ingest(cmd.Context(), data, filepath.Base(args[0]))
			if err != nil {
				if id, ok := service.RecordIDOf(err); ok {
					fmt.Fprintf(cmd.ErrOrStderr(), "meeting %s was not completed\n", id)
				}
				return err
			}
			return printRecord(out(cmd), rec)
		},
	}
}

func NewGetCmd(deps depsFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one meeting record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rec, err := deps().Service.GetMeeting(cmd.Context(), id)
			if errors.Is(err, models.ErrNotFound) {
				return fmt.Errorf("meeting %s not found", id)
			}
			if err != nil {
				return err
			}
			return printRecord(out(cmd), rec)
		},
	}
}

func NewListCmd(deps depsFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List meeting records in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := deps().Service.ListMeetings(cmd.Context())
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Fprintln(out(cmd), "No meetings found")
				return nil
			}

			tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATE\tCREATED\tACTION ITEMS")
			for _, m := range all {
				items := 0
				if m.Summary != nil {
					items = len(m.Summary.ActionItems)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", m.ID, m.State, m.CreatedAt.Format("2006-01-02 15:04:05"), items)
			}
			return tw.Flush()
		},
	}
}

func NewDeleteCmd(deps depsFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a meeting record (the audio file is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := deps().Service.DeleteMeeting(cmd.Context(), id); err != nil {
				if errors.Is(err, models.ErrNotFound) {
					return fmt.Errorf("meeting %s not found", id)
				}
				return err
			}
			fmt.Fprintf(out(cmd), "deleted %s\n", id)
			return nil
		},
	}
}

func NewWatchCmd(deps depsFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Ingest every audio file dropped into an inbox directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := deps()
			if d.Watch == nil {
				return errors.New("watch is not available")
			}
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return d.Watch(cmd.Context(), dir)
		},
	}
}

type recordView struct {
	ID           string       `json:"id"`
	State        string       `json:"state"`
	AudioLocator string       `json:"audio_locator"`
	Transcript   *string      `json:"transcript,omitempty"`
	Summary      *summaryView `json:"summary,omitempty"`
	CreatedAt    string       `json:"created_at"`
	UpdatedAt    string       `json:"updated_at"`
}

type summaryView struct {
	Text        string   `json:"text"`
	ActionItems []string `json:"action_items"`
}

func printRecord(w io.Writer, m models.MeetingRecord) error {
	v := recordView{
		ID:           m.ID.String(),
		State:        string(m.State),
		AudioLocator: m.AudioLocator,
		Transcript:   m.Transcript,
		CreatedAt:    m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    m.UpdatedAt.Format(time.RFC3339),
	}
	if m.Summary != nil {
		v.Summary = &summaryView{Text: m.Summary.Text, ActionItems: m.Summary.ActionItems}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
